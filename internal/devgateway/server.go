// AngelaMos | 2026
// server.go

package devgateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/config"
)

const claimsKey = "claims"

// Server is an in-memory stand-in for the food-delivery API. It speaks
// the same wire format the web front-end expects and is meant for local
// development and tests only.
type Server struct {
	engine   *gin.Engine
	accounts *accountStore
	tokens   *tokenIssuer
	paths    config.GatewayConfig
	logger   *slog.Logger
}

type options struct {
	cost   int
	now    func() time.Time
	logger *slog.Logger
	seed   bool
}

type Option func(*options)

func WithBcryptCost(cost int) Option {
	return func(o *options) { o.cost = cost }
}

func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithoutSeed() Option {
	return func(o *options) { o.seed = false }
}

func New(cfg config.DevGatewayConfig, paths config.GatewayConfig, opts ...Option) (*Server, error) {
	o := options{
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		logger: slog.Default(),
		seed:   true,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if cfg.Secret == "" {
		return nil, errors.New("dev gateway secret is required")
	}
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 8 * time.Hour
	}

	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		engine:   gin.New(),
		accounts: newAccountStore(o.cost),
		tokens:   &tokenIssuer{secret: []byte(cfg.Secret), ttl: ttl, now: o.now},
		paths:    paths,
		logger:   o.logger.With("component", "devgateway"),
	}

	if o.seed {
		for _, a := range seedAccounts() {
			if _, err := s.accounts.create(a, SeedPassword); err != nil {
				return nil, fmt.Errorf("seed %s: %w", a.Username, err)
			}
		}
	}

	s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("dev gateway listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) routes() {
	r := s.engine
	r.Use(gin.Recovery(), s.requestLogger())

	r.GET(s.paths.HealthPath, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "devgateway"})
	})

	r.POST(s.paths.LoginPath, s.login)
	r.POST(s.paths.RegisterPath, s.register)

	authed := r.Group("", s.authRequired())
	authed.GET(s.paths.ApprovalPath, s.roleRequired(auth.RoleRestaurant), s.approval)
	authed.GET(s.paths.ProfilePath, s.profile)

	admin := authed.Group(s.paths.AdminPath, s.roleRequired(auth.RoleAdmin))
	admin.GET("", s.listRestaurants)
	admin.PUT("/:username/estado", s.decideRestaurant)
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Usuario y contraseña son obligatorios"})
		return
	}

	a, err := s.accounts.authenticate(req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Credenciales inválidas"})
		return
	}

	token, err := s.tokens.issue(a)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo generar el token"})
		return
	}

	c.JSON(http.StatusOK, auth.TokenResponse{Token: token})
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50,alphanum"`
	Password string `json:"password" binding:"required,min=6,max=128"`
	Name     string `json:"nombre"   binding:"required,max=100"`
	Email    string `json:"email"    binding:"required,email"`
	Phone    string `json:"telefono" binding:"omitempty,max=20"`
	Role     string `json:"rol"      binding:"required,oneof=CLIENTE RESTAURANTE REPARTIDOR"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Datos de registro inválidos", "error": err.Error()})
		return
	}

	a, err := s.accounts.create(Account{
		Username: req.Username,
		Name:     req.Name,
		Email:    req.Email,
		Phone:    req.Phone,
		Role:     auth.Role(req.Role),
	}, req.Password)
	if errors.Is(err, ErrAccountExists) {
		c.JSON(http.StatusConflict, gin.H{"message": "El usuario ya existe"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "No se pudo crear la cuenta"})
		return
	}

	s.logger.Info("account registered", "username", a.Username, "role", a.Role)
	c.JSON(http.StatusCreated, gin.H{"id": a.ID, "username": a.Username})
}

func (s *Server) authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token requerido"})
			return
		}

		claims, err := s.tokens.verify(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token inválido o caducado"})
			return
		}

		c.Set(claimsKey, claims)
		c.Next()
	}
}

func (s *Server) roleRequired(role auth.Role) gin.HandlerFunc {
	want := auth.RolePrefix + string(role)
	return func(c *gin.Context) {
		if !slices.Contains(claimsFrom(c).Roles, want) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Acceso denegado"})
			return
		}
		c.Next()
	}
}

func claimsFrom(c *gin.Context) *Claims {
	if v, ok := c.Get(claimsKey); ok {
		if claims, ok := v.(*Claims); ok {
			return claims
		}
	}
	return &Claims{}
}

func (s *Server) approval(c *gin.Context) {
	a, err := s.accounts.get(claimsFrom(c).Subject)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Restaurante no encontrado"})
		return
	}

	if a.Approval == nil {
		c.Status(http.StatusNoContent)
		return
	}

	if a.ApprovalAsList {
		c.JSON(http.StatusOK, []auth.ApprovalState{*a.Approval})
		return
	}
	c.JSON(http.StatusOK, a.Approval)
}

func (s *Server) profile(c *gin.Context) {
	a, err := s.accounts.get(claimsFrom(c).Subject)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Usuario no encontrado"})
		return
	}
	c.JSON(http.StatusOK, a.profile())
}

func (s *Server) listRestaurants(c *gin.Context) {
	list := s.accounts.restaurants()
	out := make([]auth.RestaurantSummary, 0, len(list))
	for _, a := range list {
		sum := auth.RestaurantSummary{ID: a.ID, Username: a.Username, Name: a.Name, Email: a.Email}
		if a.Approval != nil {
			sum.Status = a.Approval.Status
			sum.Reason = a.Approval.Reason
		}
		out = append(out, sum)
	}
	c.JSON(http.StatusOK, out)
}

type decisionRequest struct {
	Status string `json:"estado"        binding:"required,oneof=PENDIENTE APROBADO RECHAZADO"`
	Reason string `json:"motivoRechazo" binding:"max=255"`
}

func (s *Server) decideRestaurant(c *gin.Context) {
	var req decisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Estado inválido"})
		return
	}

	state := auth.ApprovalState{Status: auth.ApprovalStatus(req.Status)}
	if state.Status == auth.ApprovalRejected {
		state.Reason = req.Reason
	}

	if err := s.accounts.setApproval(c.Param("username"), state); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "Restaurante no encontrado"})
		return
	}

	s.logger.Info("restaurant decision", "username", c.Param("username"), "estado", state.Status)
	c.Status(http.StatusNoContent)
}
