package domain

import (
	"time"
)

// User 是后台的管理用户，目前只有初始管理员一个账号
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Email        string    `json:"email"`
	CreatedAt    time.Time `json:"createdAt"`
	Version      int32     `json:"-"`
}
