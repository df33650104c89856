package engine

import (
	"go.uber.org/zap"
)

// Engine 人力推荐引擎。
// 无内部状态：所有输入通过 domain.Snapshot 按次传入，多个设施的运行
// 可以完全并行。公共方法不向调用方抛错，失败时降级为空/中性结果并记日志
// （推荐只是建议性的，不允许阻塞外围的业务操作）。
type Engine struct {
	params Params
	logger *zap.Logger
}

// New 创建推荐引擎
func New(params Params, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		params: params,
		logger: logger,
	}
}

// Params 返回当前参数（只读副本）
func (e *Engine) Params() Params {
	return e.params
}
