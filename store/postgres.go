package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rushteam/playrec/core"
)

// PostgresCatalogStore 是基于 Postgres + pgvector 的目录向量存储，生产环境使用。
//
// 表结构（对外持久化契约，迁移时必须保持）：
//   - app_id 唯一键；embedding 为 vector(D) 列，可为 NULL
//   - 检索只覆盖 embedding IS NOT NULL 的行，按 <=> 余弦距离排序
//
// 工程特征：
//   - Upsert 走 INSERT .. ON CONFLICT DO UPDATE，整行覆盖并刷新 last_updated
//   - 存储自身不做重试；连接失败包装为 UNAVAILABLE 上抛
type PostgresCatalogStore struct {
	pool      *pgxpool.Pool
	dimension int
}

// NewPostgresCatalogStore 创建 Postgres 目录存储并验证连通性。
func NewPostgresCatalogStore(ctx context.Context, dsn string, dimension int) (*PostgresCatalogStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "postgres: create pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "postgres: ping", err)
	}
	return &PostgresCatalogStore{pool: pool, dimension: dimension}, nil
}

func (p *PostgresCatalogStore) Name() string { return "postgres_catalog" }

// InitSchema 创建 pgvector 扩展、game_details 表与余弦距离索引。
func (p *PostgresCatalogStore) InitSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS game_details (
			app_id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT,
			short_description TEXT,
			genres JSONB DEFAULT '[]',
			tags JSONB DEFAULT '[]',
			developer TEXT,
			publisher TEXT,
			metacritic_score INT,
			release_date TEXT,
			header_image TEXT,
			embedding vector(%d),
			last_updated TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)`, p.dimension),
		`CREATE INDEX IF NOT EXISTS idx_game_details_embedding
			ON game_details USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
	}
	for _, stmt := range stmts {
		if _, err := p.pool.Exec(ctx, stmt); err != nil {
			return core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "postgres: init schema", err)
		}
	}
	return nil
}

// Upsert 实现 core.CatalogStore 接口
func (p *PostgresCatalogStore) Upsert(ctx context.Context, item *core.CatalogItem) error {
	if item == nil {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "catalog item is nil")
	}
	if len(item.Embedding) != p.dimension {
		return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidVector, "embedding dimension mismatch")
	}

	genres, err := json.Marshal(item.Genres)
	if err != nil {
		return core.WrapDomainError(core.ModuleStore, core.ErrorCodeInternalError, "postgres: marshal genres", err)
	}
	tags, err := json.Marshal(item.Tags)
	if err != nil {
		return core.WrapDomainError(core.ModuleStore, core.ErrorCodeInternalError, "postgres: marshal tags", err)
	}

	_, err = p.pool.Exec(ctx, `
		INSERT INTO game_details (
			app_id, name, description, short_description, genres, tags,
			developer, publisher, metacritic_score, release_date, header_image, embedding
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12::vector)
		ON CONFLICT (app_id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			short_description = EXCLUDED.short_description,
			genres = EXCLUDED.genres,
			tags = EXCLUDED.tags,
			developer = EXCLUDED.developer,
			publisher = EXCLUDED.publisher,
			metacritic_score = EXCLUDED.metacritic_score,
			release_date = EXCLUDED.release_date,
			header_image = EXCLUDED.header_image,
			embedding = EXCLUDED.embedding,
			last_updated = NOW()`,
		item.ItemID, item.Name, item.Description, item.ShortDescription,
		string(genres), string(tags), item.Developer, item.Publisher,
		item.MetacriticScore, item.ReleaseDate, item.HeaderImage,
		formatVector(item.Embedding),
	)
	if err != nil {
		return core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "postgres: upsert", err)
	}
	return nil
}

// Search 实现 core.CatalogStore 接口
func (p *PostgresCatalogStore) Search(ctx context.Context, vector []float64, topK int) ([]core.CandidateMatch, error) {
	if topK < 1 {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "topK must be >= 1")
	}
	if len(vector) != p.dimension {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidVector, "query vector dimension mismatch")
	}

	// <=> 是余弦距离，1 - 距离即余弦相似度；同距离按 app_id 升序保证确定性
	rows, err := p.pool.Query(ctx, `
		SELECT
			app_id,
			name,
			COALESCE(short_description, ''),
			genres,
			COALESCE(developer, ''),
			1 - (embedding <=> $1::vector) AS similarity
		FROM game_details
		WHERE embedding IS NOT NULL
		ORDER BY embedding <=> $1::vector, app_id
		LIMIT $2`,
		formatVector(vector), topK,
	)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "postgres: search", err)
	}
	defer rows.Close()

	matches := make([]core.CandidateMatch, 0, topK)
	for rows.Next() {
		var m core.CandidateMatch
		var genres []byte
		if err := rows.Scan(&m.ItemID, &m.Name, &m.Description, &genres, &m.Developer, &m.Similarity); err != nil {
			return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeInternalError, "postgres: scan candidate", err)
		}
		if len(genres) > 0 {
			_ = json.Unmarshal(genres, &m.Genres)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "postgres: search rows", err)
	}
	return matches, nil
}

// CountIndexed 实现 core.CatalogStore 接口
func (p *PostgresCatalogStore) CountIndexed(ctx context.Context) (int64, error) {
	var n int64
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM game_details WHERE embedding IS NOT NULL`,
	).Scan(&n)
	if err != nil {
		return 0, core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "postgres: count indexed", err)
	}
	return n, nil
}

// Has 实现 core.CatalogStore 接口
func (p *PostgresCatalogStore) Has(ctx context.Context, itemID int64) (bool, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM game_details WHERE app_id = $1)`, itemID,
	).Scan(&exists)
	if err != nil {
		return false, core.WrapDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "postgres: has", err)
	}
	return exists, nil
}

// Close 实现 core.CatalogStore 接口
func (p *PostgresCatalogStore) Close() error {
	p.pool.Close()
	return nil
}

// formatVector 将向量格式化为 pgvector 字面量，如 [0.1,0.2,0.3]。
func formatVector(vec []float64) string {
	var b strings.Builder
	b.Grow(len(vec)*10 + 2)
	b.WriteByte('[')
	for i, v := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(v, 'f', -1, 64))
	}
	b.WriteByte(']')
	return b.String()
}

var _ core.CatalogStore = (*PostgresCatalogStore)(nil)
