// Package repository 负责排班配置、求解结果和用户在 Postgres 中的读写
// 单条查询和事务分别使用配置里的 QueryTimeout 和 TransactionTimeout，
// 更新操作通过 version 列做乐观锁
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/resource-planner/backend/internal/config"
)

type Repository struct {
	cfg    *config.Config
	dbpool *sql.DB
}

func NewRepository(cfg *config.Config, dbpool *sql.DB) *Repository {
	return &Repository{
		cfg:    cfg,
		dbpool: dbpool,
	}
}

func (r *Repository) queryContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
}

func (r *Repository) transactionContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
}
