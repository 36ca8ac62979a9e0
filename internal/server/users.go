package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jalolov/crm-tizimi/internal/model"
	"github.com/jalolov/crm-tizimi/internal/store"
)

type createXodimRequest struct {
	Username       string `json:"username" binding:"required"`
	Password       string `json:"password" binding:"required"`
	FullName       string `json:"full_name"`
	TelegramChatID string `json:"telegram_chat_id"`
}

// handleCreateXodim adds a new staff account.
func (s *Server) handleCreateXodim(c *gin.Context) {
	var req createXodimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Login va parol kiritilishi shart!"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
		return
	}

	id, err := s.store.CreateUser(c.Request.Context(), model.User{
		Username:       strings.TrimSpace(req.Username),
		PasswordHash:   string(hash),
		Role:           model.RoleXodim,
		FullName:       strings.TrimSpace(req.FullName),
		TelegramChatID: strings.TrimSpace(req.TelegramChatID),
	})
	if err != nil {
		// Unique constraint on username is the only expected failure.
		c.JSON(http.StatusConflict, gin.H{"error": "Bu login allaqachon mavjud!"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"id": id, "message": "Xodim qo'shildi!"})
}

// handleListXodim returns all staff accounts.
func (s *Server) handleListXodim(c *gin.Context) {
	users, err := s.store.ListXodim(c.Request.Context())
	if err != nil {
		s.log.Error("listing xodimlar failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"xodimlar": users})
}

// handleListUsers returns every account for the assignment picker.
func (s *Server) handleListUsers(c *gin.Context) {
	users, err := s.store.ListUsers(c.Request.Context())
	if err != nil {
		s.log.Error("listing users failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users})
}

type updateXodimRequest struct {
	Username       string `json:"username" binding:"required"`
	Password       string `json:"password"`
	FullName       string `json:"full_name"`
	TelegramChatID string `json:"telegram_chat_id"`
}

// handleUpdateXodim edits a staff account. The password only changes
// when a new one is supplied.
func (s *Server) handleUpdateXodim(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req updateXodimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username bo'sh bo'lmasligi kerak!"})
		return
	}

	ctx := c.Request.Context()

	existing, err := s.store.GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) || (err == nil && existing.Role != model.RoleXodim) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Xodim topilmadi!"})
		return
	}
	if err != nil {
		s.log.Error("xodim lookup failed", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
		return
	}

	username := strings.TrimSpace(req.Username)
	if username != existing.Username {
		if other, err := s.store.GetUserByUsername(ctx, username); err == nil && other != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Bu username allaqachon mavjud!"})
			return
		}
	}

	fullName := strings.TrimSpace(req.FullName)
	chatID := strings.TrimSpace(req.TelegramChatID)
	upd := store.UserUpdate{
		Username:       &username,
		FullName:       &fullName,
		TelegramChatID: &chatID,
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
			return
		}
		hashStr := string(hash)
		upd.PasswordHash = &hashStr
	}

	if err := s.store.UpdateUser(ctx, id, upd); err != nil {
		s.log.Error("xodim update failed", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Xodim muvaffaqiyatli yangilandi!"})
}

// handleDeleteXodim removes a staff account.
func (s *Server) handleDeleteXodim(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	err := s.store.DeleteXodim(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Xodim topilmadi!"})
		return
	}
	if err != nil {
		s.log.Error("xodim delete failed", zap.Int64("id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Xodim o'chirildi!"})
}

// pathID parses the :id path parameter, answering 400 itself on junk.
func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Noto'g'ri ID"})
		return 0, false
	}
	return id, true
}
