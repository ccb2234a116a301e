package handler

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"sfapps-deck-go/internal/fetcher"
	"sfapps-deck-go/internal/model"
)

// DeckRequestBody JSON 接口的请求体
type DeckRequestBody struct {
	Industry string        `json:"industry"`
	FinalURL string        `json:"final_url,omitempty"`
	Format   string        `json:"format,omitempty"` // pptx | pdf
	Apps     []AppOverride `json:"apps"`
}

// AppOverride 一个应用链接及可选的人工填写字段
type AppOverride struct {
	URL       string `json:"url"`
	Name      string `json:"name,omitempty"`
	Developer string `json:"developer,omitempty"`
	Logo      string `json:"logo,omitempty"` // base64，可带 data URI 前缀
	LogoMIME  string `json:"logo_mime,omitempty"`
}

const deckRequestSchema = `{
  "type": "object",
  "required": ["industry", "apps"],
  "additionalProperties": false,
  "properties": {
    "industry":  {"type": "string", "minLength": 1, "maxLength": 200},
    "final_url": {"type": "string"},
    "format":    {"type": "string", "enum": ["pptx", "pdf", "PPTX", "PDF", ""]},
    "apps": {
      "type": "array",
      "minItems": 1,
      "maxItems": %d,
      "items": {
        "type": "object",
        "required": ["url"],
        "additionalProperties": false,
        "properties": {
          "url":       {"type": "string", "minLength": 1},
          "name":      {"type": "string"},
          "developer": {"type": "string"},
          "logo":      {"type": "string"},
          "logo_mime": {"type": "string"}
        }
      }
    }
  }
}`

// newRequestSchema 按条目上限编译请求体 schema
func newRequestSchema(maxListings int) (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(fmt.Sprintf(deckRequestSchema, maxListings)))
}

// validateBody 校验原始 JSON，返回所有不符合的字段描述
func validateBody(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("malformed JSON body: %w", err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("request validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// toDeckRequest 转为领域请求，解码 base64 logo
func (b *DeckRequestBody) toDeckRequest() (*model.DeckRequest, error) {
	req := &model.DeckRequest{
		Industry: b.Industry,
		FinalURL: b.FinalURL,
		Format:   model.Format(b.Format),
		Entries:  make([]model.Entry, len(b.Apps)),
	}
	for i, app := range b.Apps {
		entry := model.Entry{
			URL:      app.URL,
			Override: model.Override{Name: app.Name, Developer: app.Developer},
		}
		if app.Logo != "" {
			data, mime, err := decodeLogo(app.Logo)
			if err != nil {
				return nil, fmt.Errorf("apps[%d].logo: %w", i, err)
			}
			if app.LogoMIME != "" {
				mime = app.LogoMIME
			}
			entry.Override.Logo = data
			entry.Override.LogoMIME = fetcher.DetectMIME(mime, data)
		}
		req.Entries[i] = entry
	}
	return req, nil
}

// decodeLogo 解码 base64 或 data URI
func decodeLogo(s string) ([]byte, string, error) {
	var mime string
	if strings.HasPrefix(s, "data:") {
		comma := strings.Index(s, ",")
		if comma < 0 {
			return nil, "", fmt.Errorf("invalid data uri")
		}
		mime = strings.TrimSuffix(strings.TrimPrefix(s[:comma], "data:"), ";base64")
		s = s[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64: %w", err)
	}
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty logo")
	}
	return data, mime, nil
}
