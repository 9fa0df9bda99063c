package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"chatkeep/internal/models"
	"chatkeep/internal/service/account"
	"chatkeep/internal/session"
)

// AccountService is the credential store behind signup, login and upload.
type AccountService interface {
	CreateUser(ctx context.Context, username, email, password string) (*models.User, error)
	VerifyCredentials(ctx context.Context, username, password string) (*models.User, error)
	AttachImage(ctx context.Context, userID, fileID bson.ObjectID) error
}

// QueryLog persists and reads answered queries.
type QueryLog interface {
	Record(ctx context.Context, userID bson.ObjectID, query, response string) error
	ListByUser(ctx context.Context, userID bson.ObjectID) ([]models.QueryRecord, error)
	SearchByUser(ctx context.Context, userID bson.ObjectID, substring string) ([]models.QueryRecord, error)
}

// Relay forwards one query to the completion API and returns the full reply.
type Relay interface {
	Converse(ctx context.Context, query string) (string, error)
}

// BlobStore streams uploaded files into binary storage.
type BlobStore interface {
	Save(ctx context.Context, filename string, content io.Reader) (bson.ObjectID, error)
}

// Broadcaster pushes events to connected listeners.
type Broadcaster interface {
	Broadcast(event string, payload any)
}

// Handler wires HTTP routes to the services behind them.
type Handler struct {
	accounts AccountService
	queries  QueryLog
	relay    Relay
	blobs    BlobStore
	sessions *session.Store
	notifier Broadcaster
	log      *zap.Logger
}

// NewHandler constructs a Handler instance.
func NewHandler(accounts AccountService, queries QueryLog, relay Relay, blobs BlobStore, sessions *session.Store, notifier Broadcaster, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		accounts: accounts,
		queries:  queries,
		relay:    relay,
		blobs:    blobs,
		sessions: sessions,
		notifier: notifier,
		log:      log,
	}
}

// RegisterRoutes attaches all HTTP routes to the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/signup", h.signup)
	router.POST("/login", h.login)
	router.GET("/login/session-status", h.sessionStatus)

	sessionMW := h.sessions.Middleware()
	router.POST("/logout", sessionMW, h.logout)

	protected := router.Group("/login/session-status")
	protected.Use(sessionMW)
	protected.POST("/openAIResponse", h.openAIResponse)
	protected.GET("/openAIResponse/responseQuery", h.responseQuery)
	protected.GET("/search/history", h.searchHistory)
	protected.POST("/upload", h.upload)
}

type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

func (h *Handler) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if strings.TrimSpace(req.Username) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username, password and email are required"})
		return
	}
	_, err := h.accounts.CreateUser(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, account.ErrDuplicate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username or email already exists"})
			return
		}
		h.log.Error("create user failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User created successfully"})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user, err := h.accounts.VerifyCredentials(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrNotFound):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Username not found"})
		case errors.Is(err, account.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		default:
			h.log.Error("login failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Error logging in"})
		}
		return
	}

	// one linear sequence: build the snapshot, persist it, then respond
	snap := &models.Session{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Image:    user.UserImage,
	}
	token, err := h.sessions.Create(c.Request.Context(), snap)
	if err != nil {
		h.log.Error("session create failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error saving session"})
		return
	}
	h.setSessionCookie(c, token)
	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userSummary(snap),
	})
}

func (h *Handler) sessionStatus(c *gin.Context) {
	token, err := c.Cookie(h.sessions.CookieName())
	if err != nil || token == "" {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	snap, err := h.sessions.Get(c.Request.Context(), token)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"active": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"active": true, "user": userSummary(snap)})
}

func (h *Handler) logout(c *gin.Context) {
	token, _ := session.TokenFromContext(c)
	if err := h.sessions.Destroy(c.Request.Context(), token); err != nil {
		h.log.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error logging out"})
		return
	}
	h.clearSessionCookie(c)
	c.JSON(http.StatusOK, gin.H{"message": "Logout successful"})
}

type queryRequest struct {
	Query string `json:"query"`
}

func (h *Handler) openAIResponse(c *gin.Context) {
	snap, ok := session.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}

	response, err := h.relay.Converse(c.Request.Context(), req.Query)
	if err != nil {
		h.log.Error("chat relay failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error communicating with OpenAI API"})
		return
	}

	if err := h.queries.Record(c.Request.Context(), snap.UserID, req.Query, response); err != nil {
		h.log.Error("record query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}

	h.notifier.Broadcast("newQuery", gin.H{"query": req.Query, "response": response})

	c.JSON(http.StatusOK, gin.H{"response": response})
}

func (h *Handler) responseQuery(c *gin.Context) {
	snap, ok := session.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	records, err := h.queries.ListByUser(c.Request.Context(), snap.UserID)
	if err != nil {
		h.log.Error("list queries failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, records)
}

func (h *Handler) searchHistory(c *gin.Context) {
	snap, ok := session.FromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	records, err := h.queries.SearchByUser(c.Request.Context(), snap.UserID, c.Query("query"))
	if err != nil {
		h.log.Error("search queries failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, records)
}

func userSummary(snap *models.Session) gin.H {
	summary := gin.H{
		"id":       snap.UserID.Hex(),
		"username": snap.Username,
		"email":    snap.Email,
	}
	if !snap.Image.IsZero() {
		summary["image"] = snap.Image.Hex()
	}
	return summary
}

func (h *Handler) setSessionCookie(c *gin.Context, token string) {
	setCookie(c, &http.Cookie{
		Name:     h.sessions.CookieName(),
		Value:    token,
		MaxAge:   int(h.sessions.TTL().Seconds()),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *Handler) clearSessionCookie(c *gin.Context) {
	setCookie(c, &http.Cookie{
		Name:     h.sessions.CookieName(),
		Value:    "",
		MaxAge:   -1,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func setCookie(c *gin.Context, ck *http.Cookie) {
	if ck == nil {
		return
	}
	http.SetCookie(c.Writer, ck)
}
