package profile

import (
	"errors"
	"net/http"
	"time"

	"github.com/SlpAus/study-tracker-backend/internal/platform/config"
	"github.com/gin-gonic/gin"
)

// SignupRequestBody 定义了注册请求的JSON结构
type SignupRequestBody struct {
	Username string `json:"username" binding:"required,min=3,max=32,alphanum"`
	Password string `json:"password" binding:"required,min=6,max=72"`
	FullName string `json:"fullName" binding:"required,max=100"`
}

// LoginRequestBody 定义了登录请求的JSON结构
type LoginRequestBody struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// NoteRequestBody 定义了备注修改请求的JSON结构
type NoteRequestBody struct {
	Note string `json:"note" binding:"max=500"`
}

// ProfileResponse 是对外暴露的档案视图
type ProfileResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
	Note     string `json:"note"`
}

func formatProfile(p *Profile) ProfileResponse {
	return ProfileResponse{
		ID:       p.ID,
		Username: p.Username,
		Email:    p.Email,
		FullName: p.FullName,
		Role:     p.Role,
		Note:     p.Note,
	}
}

// sessionTTL 从配置读取会话有效期
func sessionTTL() time.Duration {
	hours := 72
	if config.Cfg != nil && config.Cfg.Session.TTLHours > 0 {
		hours = config.Cfg.Session.TTLHours
	}
	return time.Duration(hours) * time.Hour
}

// Signup 处理注册请求
func Signup(c *gin.Context) {
	var body SignupRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	newProfile, err := CreateAccount(body.Username, body.Password, body.FullName)
	if err != nil {
		if errors.Is(err, ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "注册失败: " + err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "注册成功",
		"profile": formatProfile(newProfile),
	})
}

// Login 处理登录请求，成功时签发会话Cookie
func Login(c *gin.Context) {
	var body LoginRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	p, err := Authenticate(body.Username, body.Password)
	if err != nil {
		if errors.Is(err, ErrBadCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error(), "redirect": "/login"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "登录失败: " + err.Error()})
		return
	}

	ttl := sessionTTL()
	tokenStr, err := IssueSession(p, ttl)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "无法签发会话: " + err.Error()})
		return
	}
	c.SetCookie(CookieName, tokenStr, int(ttl.Seconds()), "/", "", false, true)

	// 响应携带角色，前端据此跳转到对应的面板
	redirect := "/student/dashboard"
	if p.IsAdmin() {
		redirect = "/admin/dashboard"
	}
	c.JSON(http.StatusOK, gin.H{
		"profile":  formatProfile(p),
		"redirect": redirect,
	})
}

// Logout 处理登出请求，清除Cookie并吊销服务端会话
func Logout(c *gin.Context) {
	if raw, exists := c.Get(RawTokenKey); exists {
		RevokeSession(raw.(string))
	}
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "已登出"})
}

// Me 返回当前会话对应的档案
func Me(c *gin.Context) {
	userID := c.GetString(UserIDKey)
	p, err := GetProfileByID(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询档案失败"})
		return
	}
	if p == nil {
		// 档案已被删除但令牌尚未过期，按未登录处理
		c.JSON(http.StatusUnauthorized, gin.H{"error": "档案不存在", "redirect": "/login"})
		return
	}
	c.JSON(http.StatusOK, formatProfile(p))
}

// UpdateNoteHandler 处理面板备注的修改
func UpdateNoteHandler(c *gin.Context) {
	var body NoteRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "请求格式错误: " + err.Error()})
		return
	}

	userID := c.GetString(UserIDKey)
	if err := UpdateNote(userID, body.Note); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存备注失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "备注已保存"})
}
