package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jalolov/crm-tizimi/internal/model"
	"github.com/jalolov/crm-tizimi/internal/store"
)

// ctxSession is the gin context key the auth middleware stores the
// session under.
const ctxSession = "session"

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// handleLogin verifies credentials and issues a session cookie.
func (s *Server) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Login va parol kiritilishi shart!"})
		return
	}

	user, err := s.store.GetUserByUsername(c.Request.Context(), req.Username)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Noto'g'ri login yoki parol!"})
		return
	}
	if err != nil {
		s.log.Error("login lookup failed", zap.String("username", req.Username), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Noto'g'ri login yoki parol!"})
		return
	}

	token := s.sessions.Create(*user)
	c.SetCookie(sessionCookie, token, 0, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"id":        user.ID,
		"username":  user.Username,
		"role":      user.Role,
		"full_name": user.FullName,
	})
}

// handleLogout ends the current session.
func (s *Server) handleLogout(c *gin.Context) {
	if token, err := c.Cookie(sessionCookie); err == nil {
		s.sessions.Delete(token)
	}
	c.SetCookie(sessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Tizimdan chiqdingiz"})
}

// requireLogin loads the session from the cookie and aborts with 401
// when it is missing or stale.
func (s *Server) requireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(sessionCookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Iltimos, tizimga kiring"})
			return
		}
		sess, ok := s.sessions.Get(token)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Iltimos, tizimga kiring"})
			return
		}
		c.Set(ctxSession, sess)
		c.Next()
	}
}

// requireBoss aborts with 403 unless the session belongs to the boss.
func (s *Server) requireBoss() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentSession(c).Role != model.RoleBoss {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Bu amal faqat boss uchun!"})
			return
		}
		c.Next()
	}
}

// currentSession returns the session stored by requireLogin.
func currentSession(c *gin.Context) session {
	return c.MustGet(ctxSession).(session)
}

type changeProfileRequest struct {
	NewUsername     string `json:"new_username"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
	CurrentPassword string `json:"current_password" binding:"required"`
}

// handleChangeProfile lets the boss change their own username and/or
// password after confirming the current password.
func (s *Server) handleChangeProfile(c *gin.Context) {
	var req changeProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Hozirgi parol kiritilishi shart!"})
		return
	}

	sess := currentSession(c)
	ctx := c.Request.Context()

	user, err := s.store.GetUserByID(ctx, sess.UserID)
	if err != nil {
		s.log.Error("profile lookup failed", zap.Int64("user_id", sess.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Hozirgi parol noto'g'ri!"})
		return
	}

	var upd store.UserUpdate

	if req.NewUsername != "" && req.NewUsername != user.Username {
		if existing, err := s.store.GetUserByUsername(ctx, req.NewUsername); err == nil && existing != nil {
			c.JSON(http.StatusConflict, gin.H{"error": "Bu username allaqachon mavjud!"})
			return
		}
		upd.Username = &req.NewUsername
	}

	if req.NewPassword != "" {
		if req.NewPassword != req.ConfirmPassword {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parollar mos kelmadi!"})
			return
		}
		if len(req.NewPassword) < 4 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Parol kamida 4 ta belgidan iborat bo'lishi kerak!"})
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
			return
		}
		hashStr := string(hash)
		upd.PasswordHash = &hashStr
	}

	if upd.Username == nil && upd.PasswordHash == nil {
		c.JSON(http.StatusOK, gin.H{"message": "Hech narsa o'zgartirilmadi"})
		return
	}

	if err := s.store.UpdateUser(ctx, sess.UserID, upd); err != nil {
		s.log.Error("profile update failed", zap.Int64("user_id", sess.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Tizim xatosi"})
		return
	}

	if upd.Username != nil {
		if token, err := c.Cookie(sessionCookie); err == nil {
			s.sessions.Rename(token, *upd.Username)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Profil muvaffaqiyatli o'zgartirildi!"})
}
