package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"sfapps-deck-go/internal/model"
)

// HeartbeatInterval 心跳间隔
const HeartbeatInterval = 15 * time.Second

// Writer SSE写入器，每次输出完整的 DeckState
type Writer struct {
	w         http.ResponseWriter
	flusher   http.Flusher
	mu        sync.Mutex
	state     *model.DeckState
	stopHeart chan struct{}
	stopOnce  sync.Once
	done      chan struct{}
}

// NewWriter 创建写入器并启动心跳，结束时必须调用 Close
func NewWriter(w http.ResponseWriter, state *model.DeckState) (*Writer, error) {
	return newWriter(w, state, HeartbeatInterval)
}

func newWriter(w http.ResponseWriter, state *model.DeckState, interval time.Duration) (*Writer, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	writer := &Writer{
		w:         w,
		flusher:   flusher,
		state:     state,
		stopHeart: make(chan struct{}),
		done:      make(chan struct{}),
	}

	go writer.heartbeat(interval)

	return writer, nil
}

// heartbeat 定期发送心跳保持连接
func (s *Writer) heartbeat(interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.mu.Lock()
			heartbeat := map[string]interface{}{
				"status":         "heartbeat",
				"overall":        s.state.Overall,
				"current_action": s.state.CurrentAction,
			}
			data, _ := json.Marshal(heartbeat)
			fmt.Fprintf(s.w, "data: %s\n\n", data)
			s.flusher.Flush()
			s.mu.Unlock()
		case <-s.stopHeart:
			return
		}
	}
}

// Close 停止心跳并等待其退出，可重复调用
func (s *Writer) Close() {
	s.stopOnce.Do(func() { close(s.stopHeart) })
	<-s.done
}

func (s *Writer) send() error {
	data, err := json.Marshal(s.state)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// SetAction 更新当前动作和进度并发送，进度只增不减
func (s *Writer) SetAction(progress int, action string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if progress > s.state.Overall {
		s.state.Overall = progress
	}
	s.state.CurrentAction = action
	return s.send()
}

// SetListing 记录一个条目的解析结果并发送
func (s *Writer) SetListing(index int, entry *model.ResolvedEntry) error {
	status := model.StatusDone
	if entry.NeedsInput {
		status = model.StatusManual
	}
	s.state.Listings.Set(index, &model.ListingState{
		Number:     entry.Number,
		URL:        entry.Listing.URL,
		Status:     status,
		Name:       entry.Name,
		Developer:  entry.Developer,
		Sources:    entry.Listing.Sources,
		FromCache:  entry.FromCache,
		NeedsInput: entry.NeedsInput,
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.CurrentAction = fmt.Sprintf("Resolved app #%d", entry.Number)
	s.recalcOverall()
	return s.send()
}

// SendPreview 发送预览数据并标记完成
func (s *Writer) SendPreview(preview *model.Preview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Preview = preview
	s.state.Status = "completed"
	s.state.Overall = 100
	s.state.CurrentAction = "Preview ready"
	return s.send()
}

// SendGlobalError 发送全局错误
func (s *Writer) SendGlobalError(errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Status = "error"
	s.state.CurrentAction = "Preview failed"
	s.state.Error = errMsg
	return s.send()
}

// Done 全部完成
func (s *Writer) Done() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Status = "completed"
	s.state.Overall = 100
	s.state.CurrentAction = "Completed"
	return s.send()
}

// recalcOverall 解析阶段占 90%，按完成的条目数计算（只增不减）
func (s *Writer) recalcOverall() {
	total := s.state.Listings.Len()
	if total == 0 {
		return
	}
	overall := 5 + s.state.Listings.CountDone()*85/total
	if overall > s.state.Overall {
		s.state.Overall = overall
	}
}
