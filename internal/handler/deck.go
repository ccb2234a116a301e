package handler

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"sfapps-deck-go/internal/deck"
	"sfapps-deck-go/internal/fetcher"
	"sfapps-deck-go/internal/model"
	"sfapps-deck-go/internal/service"
	"sfapps-deck-go/internal/sse"
)

//go:embed templates/index.html
var templateFS embed.FS

var indexTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// allowedLogoExts 允许上传的logo扩展名
var allowedLogoExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".bmp": true}

// DeckService 处理器依赖的服务
type DeckService interface {
	MaxListings() int
	Normalize(req *model.DeckRequest) (*model.DeckRequest, error)
	Preview(ctx context.Context, req *model.DeckRequest, progress service.ProgressFunc) (*model.Preview, error)
	Generate(ctx context.Context, req *model.DeckRequest) (*model.Artifact, error)
}

// DeckHandler 表单、JSON接口和预览进度流
type DeckHandler struct {
	service   DeckService
	maxUpload int64
	schema    *gojsonschema.Schema
	logger    *zap.Logger
}

// NewDeckHandler 创建处理器
func NewDeckHandler(svc DeckService, maxUpload int64, logger *zap.Logger) (*DeckHandler, error) {
	schema, err := newRequestSchema(svc.MaxListings())
	if err != nil {
		return nil, err
	}
	if maxUpload <= 0 {
		maxUpload = 16 << 20
	}
	return &DeckHandler{service: svc, maxUpload: maxUpload, schema: schema, logger: logger}, nil
}

// Register 注册路由
func (h *DeckHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("POST /generate", h.Generate)
	mux.HandleFunc("POST /api/deck", h.APIDeck)
	mux.HandleFunc("POST /api/preview/sse", h.PreviewSSE)
	mux.HandleFunc("GET /health", h.Health)
}

// Index 表单页面
// GET /
func (h *DeckHandler) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := struct {
		MaxListings int
		Rows        []int
	}{MaxListings: h.service.MaxListings(), Rows: []int{1, 2, 3}}
	if err := indexTemplate.Execute(w, data); err != nil {
		h.logger.Error("render index failed", zap.Error(err))
	}
}

// Generate 处理表单：preview=true 时返回JSON预览，否则返回文件
// POST /generate
func (h *DeckHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUpload {
		h.writeError(w, r, &http.MaxBytesError{Limit: h.maxUpload})
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)

	req, preview, err := h.parseForm(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, err = h.service.Normalize(req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if preview {
		result, err := h.service.Preview(r.Context(), req, nil)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "preview": result})
		return
	}

	h.generate(w, r, req)
}

// APIDeck JSON 接口，logo 使用 base64
// POST /api/deck
func (h *DeckHandler) APIDeck(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeJSON(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.generate(w, r, req)
}

// PreviewSSE 以SSE推送解析进度，最后一条消息带预览数据
// POST /api/preview/sse
func (h *DeckHandler) PreviewSSE(w http.ResponseWriter, r *http.Request) {
	req, err := h.decodeJSON(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writer, err := sse.NewWriter(w, model.NewDeckState(req.Industry, req.URLs()))
	if err != nil {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}
	defer writer.Close()

	logger := h.logger.With(zap.String("request_id", RequestID(r.Context())))
	logger.Info("starting preview stream", zap.String("industry", req.Industry), zap.Int("apps", len(req.Entries)))

	writer.SetAction(5, "Resolving listings...")
	result, err := h.service.Preview(r.Context(), req, func(i int, e *model.ResolvedEntry) {
		writer.SetListing(i, e)
	})
	if err != nil {
		logger.Warn("preview failed", zap.Error(err))
		writer.SendGlobalError(err.Error())
		return
	}
	writer.SendPreview(result)
}

// Health 健康检查
func (h *DeckHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (h *DeckHandler) generate(w http.ResponseWriter, r *http.Request, req *model.DeckRequest) {
	artifact, err := h.service.Generate(r.Context(), req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", artifact.MIME())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": artifact.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(artifact.Data)))
	if artifact.Fallback {
		w.Header().Set("X-Deck-Fallback", "pptx")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(artifact.Data)
}

// decodeJSON 校验并解析JSON请求体
func (h *DeckHandler) decodeJSON(w http.ResponseWriter, r *http.Request) (*model.DeckRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxUpload))
	if err != nil {
		return nil, err
	}
	if err := validateBody(h.schema, body); err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidRequest, err)
	}

	var payload DeckRequestBody
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidRequest, err)
	}
	req, err := payload.toDeckRequest()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidRequest, err)
	}
	return h.service.Normalize(req)
}

// uploadedLogo 表单中上传的一个logo文件
type uploadedLogo struct {
	filename    string
	contentType string
	data        []byte
}

// formData 按顺序读取的表单。positional 对应 app_logos[] 的每个部分，
// 未选择文件的部分也占一个位置（值为 nil）
type formData struct {
	values     url.Values
	positional []*uploadedLogo
	numbered   map[int]*uploadedLogo
}

// parseForm 解析 multipart 或 urlencoded 表单；各字段按行号对齐
func (h *DeckHandler) parseForm(r *http.Request) (*model.DeckRequest, bool, error) {
	form, err := h.readForm(r)
	if err != nil {
		return nil, false, err
	}

	links := form.values["app_links[]"]
	names := form.values["app_names[]"]
	developers := form.values["app_developers[]"]

	req := &model.DeckRequest{
		Industry: form.values.Get("industry"),
		FinalURL: form.values.Get("final_url"),
		Format:   model.Format(form.values.Get("format")),
		Entries:  make([]model.Entry, len(links)),
	}
	for i, link := range links {
		req.Entries[i] = model.Entry{
			URL: link,
			Override: model.Override{
				Name:      at(names, i),
				Developer: at(developers, i),
			},
		}
		if logo := h.rowLogo(form, i); logo != nil {
			req.Entries[i].Override.Logo = logo.data
			req.Entries[i].Override.LogoMIME = fetcher.DetectMIME(logo.contentType, logo.data)
		}
	}

	return req, form.values.Get("preview") == "true", nil
}

// readForm 按出现顺序读取表单各部分，非 multipart 请求退回 ParseForm
func (h *DeckHandler) readForm(r *http.Request) (*formData, error) {
	form := &formData{values: url.Values{}, numbered: map[int]*uploadedLogo{}}

	mr, err := r.MultipartReader()
	if errors.Is(err, http.ErrNotMultipart) {
		if err := r.ParseForm(); err != nil {
			return nil, err
		}
		form.values = r.Form
		return form, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", service.ErrInvalidRequest, err)
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		field := part.FormName()
		data, err := io.ReadAll(part)
		part.Close()
		if err != nil {
			return nil, err
		}

		switch {
		case field == "":
		case field == "app_logos[]":
			form.positional = append(form.positional, h.uploaded(part, data))
		case strings.HasPrefix(field, "app_logo_"):
			if n, err := strconv.Atoi(strings.TrimPrefix(field, "app_logo_")); err == nil && n > 0 {
				if logo := h.uploaded(part, data); logo != nil {
					form.numbered[n] = logo
				}
			}
		default:
			form.values.Add(field, string(data))
		}
	}

	for key, vals := range r.URL.Query() {
		for _, v := range vals {
			form.values.Add(key, v)
		}
	}
	return form, nil
}

// uploaded 空文件和不支持的扩展名返回 nil
func (h *DeckHandler) uploaded(part *multipart.Part, data []byte) *uploadedLogo {
	filename := part.FileName()
	if filename == "" || len(data) == 0 {
		return nil
	}
	if !allowedLogoExts[strings.ToLower(filepath.Ext(filename))] {
		h.logger.Warn("ignoring logo with unsupported extension", zap.String("filename", filename))
		return nil
	}
	return &uploadedLogo{filename: filename, contentType: part.Header.Get("Content-Type"), data: data}
}

// rowLogo 优先使用 app_logo_<行号>（从1开始），其次按位置对应 app_logos[]
func (h *DeckHandler) rowLogo(form *formData, row int) *uploadedLogo {
	if logo := form.numbered[row+1]; logo != nil {
		return logo
	}
	if row < len(form.positional) {
		return form.positional[row]
	}
	return nil
}

func at(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}

// writeError 400 参数错误，413 请求体过大，其余 500
func (h *DeckHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "Failed to generate presentation: " + err.Error()

	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		status = http.StatusRequestEntityTooLarge
		msg = "Request too large. Maximum size: " + strconv.FormatInt(h.maxUpload>>20, 10) + "MB"
	case errors.Is(err, service.ErrInvalidRequest):
		status = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, deck.ErrTemplateNotFound):
		msg = "Presentation template not found"
	}

	h.logger.Warn("request failed",
		zap.String("request_id", RequestID(r.Context())),
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err))
	writeJSON(w, status, map[string]interface{}{"success": false, "error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
