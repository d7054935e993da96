package domain

import "errors"

var (
	// ErrMissingSchedule 交易无费率规则且无法合成默认方程
	ErrMissingSchedule = errors.New("no fee schedule and no synthesizable default equation")
	// ErrEquationNotFound 交易未配置方程（可合成时由上层处理）
	ErrEquationNotFound = errors.New("deal equation not found")
	// ErrInvalidLedger 校验未通过的账本禁止落库
	ErrInvalidLedger = errors.New("fee ledger failed validation, refusing to persist")
	// ErrPrecedenceConflict 优先级必须唯一且严格递增
	ErrPrecedenceConflict = errors.New("schedule precedence values must be unique and ascending")
	// ErrUnknownComponent 未知费用组件
	ErrUnknownComponent = errors.New("unknown fee component")
	// ErrUnknownBasis 未知计算基数
	ErrUnknownBasis = errors.New("unknown fee basis")
)
