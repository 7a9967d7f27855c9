package repository

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultPageSize = 10

// ListQuery 列表查询参数：分页、排序、搜索与过滤
type ListQuery struct {
	Page     string // 从 1 开始，也接受 "last"
	PageSize int
	Ordering string
	Search   string
	Filters  url.Values
}

// Page 分页结果
type Page[T any] struct {
	Count    int64
	Number   int
	Size     int
	NumPages int
	Results  []T
}

// HasNext 是否有下一页
func (p *Page[T]) HasNext() bool {
	return p.Number < p.NumPages
}

// HasPrevious 是否有上一页
func (p *Page[T]) HasPrevious() bool {
	return p.Number > 1
}

type filterKind int

const (
	filterString filterKind = iota
	filterBool
	filterUUID
)

// filterField 条件模板里只有一个占位符
type filterField struct {
	cond string
	kind filterKind
}

// listSpec 每个资源允许的过滤、搜索和排序字段
type listSpec struct {
	filters      map[string]filterField
	search       []string          // 条件模板，每个一个占位符
	ordering     map[string]string // 参数名 -> 列名
	defaultOrder string
	tiebreak     string
}

func likeCond(expr string) string {
	return "LOWER(" + expr + ") LIKE ? ESCAPE '\\'"
}

// scope 应用过滤和搜索，返回的错误为 *FilterError
func (s listSpec) scope(q ListQuery) (func(*gorm.DB) *gorm.DB, error) {
	type condition struct {
		sql  string
		args []interface{}
	}
	var conds []condition

	for name, field := range s.filters {
		raw := strings.TrimSpace(q.Filters.Get(name))
		if raw == "" {
			continue
		}
		value, err := parseFilter(field.kind, raw)
		if err != nil {
			return nil, &FilterError{Field: name, Message: err.Error()}
		}
		conds = append(conds, condition{sql: field.cond, args: []interface{}{value}})
	}

	if len(s.search) > 0 {
		for _, term := range searchTerms(q.Search) {
			pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
			args := make([]interface{}, len(s.search))
			for i := range args {
				args[i] = pattern
			}
			conds = append(conds, condition{
				sql:  "(" + strings.Join(s.search, " OR ") + ")",
				args: args,
			})
		}
	}

	return func(db *gorm.DB) *gorm.DB {
		for _, c := range conds {
			db = db.Where(c.sql, c.args...)
		}
		return db
	}, nil
}

// order 解析 ordering 参数，不在白名单的字段忽略
func (s listSpec) order(raw string) string {
	var parts []string
	for _, field := range strings.Split(raw, ",") {
		field = strings.TrimSpace(field)
		desc := strings.HasPrefix(field, "-")
		column, ok := s.ordering[strings.TrimPrefix(field, "-")]
		if !ok {
			continue
		}
		if desc {
			parts = append(parts, column+" DESC")
		} else {
			parts = append(parts, column+" ASC")
		}
	}
	if len(parts) == 0 {
		if raw == s.defaultOrder {
			return ""
		}
		return s.order(s.defaultOrder)
	}
	if s.tiebreak != "" {
		parts = append(parts, s.tiebreak)
	}
	return strings.Join(parts, ", ")
}

func parseFilter(kind filterKind, raw string) (interface{}, error) {
	switch kind {
	case filterBool:
		switch strings.ToLower(raw) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, errInvalidChoice(raw)
	case filterUUID:
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errInvalidUUID
		}
		return id.String(), nil
	default:
		return raw, nil
	}
}

type filterMessage string

func (m filterMessage) Error() string { return string(m) }

const errInvalidUUID = filterMessage("Enter a valid UUID.")

func errInvalidChoice(raw string) error {
	return filterMessage("Select a valid choice. " + raw + " is not one of the available choices.")
}

func searchTerms(raw string) []string {
	return strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// pageBounds 计算页码和偏移；空结果集也有第 1 页
func pageBounds(count int64, q ListQuery) (number, size, numPages int, err error) {
	size = q.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	numPages = int(math.Ceil(float64(count) / float64(size)))
	if numPages < 1 {
		numPages = 1
	}

	switch q.Page {
	case "":
		number = 1
	case "last":
		number = numPages
	default:
		number, err = strconv.Atoi(q.Page)
		if err != nil {
			return 0, 0, 0, ErrInvalidPage
		}
	}
	if number < 1 || number > numPages {
		return 0, 0, 0, ErrInvalidPage
	}
	return number, size, numPages, nil
}

// paginate 按 listSpec 查询一页数据；prepare 只作用于取数据（如 Preload），不参与计数
func paginate[T any](db *gorm.DB, q ListQuery, spec listSpec, prepare func(*gorm.DB) *gorm.DB) (*Page[T], error) {
	scope, err := spec.scope(q)
	if err != nil {
		return nil, err
	}
	if prepare == nil {
		prepare = func(db *gorm.DB) *gorm.DB { return db }
	}

	var count int64
	if err := db.Model(new(T)).Scopes(scope).Count(&count).Error; err != nil {
		return nil, err
	}

	number, size, numPages, err := pageBounds(count, q)
	if err != nil {
		return nil, err
	}

	results := make([]T, 0, size)
	query := db.Scopes(scope, prepare)
	if order := spec.order(q.Ordering); order != "" {
		query = query.Order(order)
	}
	if err := query.Limit(size).Offset((number - 1) * size).Find(&results).Error; err != nil {
		return nil, err
	}

	return &Page[T]{
		Count:    count,
		Number:   number,
		Size:     size,
		NumPages: numPages,
		Results:  results,
	}, nil
}

// ownedBy 限定归属用户；Session 让后续计数和取数各自复制语句
func ownedBy(db *gorm.DB, userID uuid.UUID) *gorm.DB {
	return db.Where("user_id = ?", userID.String()).Session(&gorm.Session{})
}
