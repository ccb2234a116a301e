package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// NewRouter 注册全部路由并套上中间件
func NewRouter(deckHandler *DeckHandler, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	deckHandler.Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return CORS(WithRequestID(AccessLog(logger)(mux)))
}
