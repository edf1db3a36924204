package db

import (
	"database/sql"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// DB 全局数据库连接 (指标历史和已处理条目记录; 注册表快照走 RegistryStore)
var DB *sql.DB

// Init 初始化数据库
func Init(dbPath string) error {
	var err error
	// 使用 DSN 参数配置 WAL 模式和超时，确保连接池中的所有连接都生效
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	DB, err = sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	DB.SetMaxOpenConns(10)
	DB.SetMaxIdleConns(5)
	DB.SetConnMaxLifetime(time.Hour)

	// 创建表
	schema := `
	CREATE TABLE IF NOT EXISTS tag_metrics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		previous_unique_tags INTEGER NOT NULL DEFAULT 0,
		unique_tags INTEGER NOT NULL DEFAULT 0,
		total_usage INTEGER NOT NULL DEFAULT 0,
		new_tags INTEGER NOT NULL DEFAULT 0,
		growth_rate REAL NOT NULL DEFAULT 0,
		new_tag_ratio REAL NOT NULL DEFAULT 0,
		single_use_ratio REAL NOT NULL DEFAULT 0,
		entropy REAL NOT NULL DEFAULT 0,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS processed_raindrops (
		raindrop_id INTEGER PRIMARY KEY,
		processed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_tag_metrics_timestamp ON tag_metrics(timestamp);
	`

	_, err = DB.Exec(schema)
	if err != nil {
		return err
	}

	log.Printf("✅ 数据库初始化成功 (WAL模式): %s", dbPath)
	return nil
}

// Close 关闭数据库连接
func Close() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
