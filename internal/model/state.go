package model

import (
	"encoding/json"
	"sync"
)

// ListingStatus 单个应用的抓取状态
type ListingStatus string

const (
	StatusPending ListingStatus = "pending"
	StatusDone    ListingStatus = "done"
	// StatusManual 抓取失败，需要用户手动输入
	StatusManual ListingStatus = "manual"
)

// ListingState 进度流中单个应用的状态
type ListingState struct {
	Number     int           `json:"number"`
	URL        string        `json:"url"`
	Status     ListingStatus `json:"status"`
	Name       string        `json:"name,omitempty"`
	Developer  string        `json:"developer,omitempty"`
	Sources    []string      `json:"sources,omitempty"`
	FromCache  bool          `json:"from_cache,omitempty"`
	NeedsInput bool          `json:"needs_input,omitempty"`
}

// ListingMap 并发安全的应用状态表，按编号序列化
type ListingMap struct {
	mu    sync.RWMutex
	items []*ListingState
}

// NewListingMap 为每个链接创建 pending 状态
func NewListingMap(urls []string) *ListingMap {
	items := make([]*ListingState, len(urls))
	for i, u := range urls {
		items[i] = &ListingState{Number: i + 1, URL: u, Status: StatusPending}
	}
	return &ListingMap{items: items}
}

// Set 更新第 index 个应用状态，越界时忽略
func (m *ListingMap) Set(index int, state *ListingState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if index < 0 || index >= len(m.items) {
		return
	}
	m.items[index] = state
}

// Get 获取第 index 个应用状态
func (m *ListingMap) Get(index int) *ListingState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if index < 0 || index >= len(m.items) {
		return nil
	}
	return m.items[index]
}

// Len 应用数量
func (m *ListingMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// CountDone 统计已经结束（成功或需要手动输入）的数量
func (m *ListingMap) CountDone() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, s := range m.items {
		if s.Status == StatusDone || s.Status == StatusManual {
			count++
		}
	}
	return count
}

// MarshalJSON 实现json序列化
func (m *ListingMap) MarshalJSON() ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return json.Marshal(m.items)
}

// DeckState 预览进度 - SSE每次输出这个完整结构
type DeckState struct {
	Status        string      `json:"status"` // "resolving" | "completed" | "error"
	Industry      string      `json:"industry,omitempty"`
	Overall       int         `json:"overall"`        // 整体进度 0-100
	CurrentAction string      `json:"current_action"` // 当前动作
	Listings      *ListingMap `json:"listings"`
	Preview       *Preview    `json:"preview,omitempty"`
	Error         string      `json:"error,omitempty"`
}

// NewDeckState 创建初始状态
func NewDeckState(industry string, urls []string) *DeckState {
	return &DeckState{
		Status:        "resolving",
		Industry:      industry,
		CurrentAction: "Initializing...",
		Listings:      NewListingMap(urls),
	}
}
