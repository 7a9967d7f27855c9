package utils

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"
)

// 通用错误文案
const (
	MsgNotFound         = "Not found."
	MsgNotAuthenticated = "Authentication credentials were not provided."
	MsgPermissionDenied = "You do not have permission to perform this action."
	MsgThrottled        = "Request was throttled."
	MsgServerError      = "A server error occurred."
	MsgInvalidPage      = "Invalid page."
)

// Detail 返回 {"detail": msg}
func Detail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"detail": msg})
}

// BadRequest 返回400错误，body 通常为字段错误
func BadRequest(c *gin.Context, body interface{}) {
	c.AbortWithStatusJSON(http.StatusBadRequest, body)
}

// Unauthorized 返回401错误并带上鉴权方式
func Unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", "Token")
	Detail(c, http.StatusUnauthorized, msg)
}

// Forbidden 返回403错误
func Forbidden(c *gin.Context) {
	Detail(c, http.StatusForbidden, MsgPermissionDenied)
}

// NotFound 返回404错误
func NotFound(c *gin.Context) {
	Detail(c, http.StatusNotFound, MsgNotFound)
}

// ServerError 返回500错误
func ServerError(c *gin.Context, msg string) {
	if msg == "" {
		msg = MsgServerError
	}
	Detail(c, http.StatusInternalServerError, msg)
}

// PageResponse 分页响应
type PageResponse struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// NewPageResponse 生成带绝对地址的上一页/下一页链接，第 1 页不带 page 参数
func NewPageResponse(c *gin.Context, count int64, number int, hasNext, hasPrevious bool, results interface{}) PageResponse {
	resp := PageResponse{Count: count, Results: results}
	if hasNext {
		link := pageURL(c, number+1)
		resp.Next = &link
	}
	if hasPrevious {
		link := pageURL(c, number-1)
		resp.Previous = &link
	}
	return resp
}

func pageURL(c *gin.Context, page int) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	query := c.Request.URL.Query()
	if page <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	u := url.URL{
		Scheme:   scheme,
		Host:     c.Request.Host,
		Path:     c.Request.URL.Path,
		RawQuery: query.Encode(),
	}
	return u.String()
}
