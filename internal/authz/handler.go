package authz

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kollektive-hackathon/fcl-gateway/internal/fcl"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/config"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/flowchain"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/pubsub"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/reject"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/walletapi"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/ws"
	"github.com/kollektive-hackathon/fcl-gateway/internal/session"
	"gorm.io/gorm"
)

type authzHandler struct {
	authz *authzService
}

type Dependencies struct {
	Config     config.Config
	Wallet     *walletapi.Client
	Chain      flowchain.Client
	Sessions   *session.Store
	Hub        *ws.WebSocketNotificationHub
	Registry   *fcl.AddressRegistry
	DB         *gorm.DB
	PubSub     pubsub.Publisher
	Subscriber pubsub.Subscriber
}

func RegisterRoutesAndSubscriptions(ctx context.Context, rg *gin.RouterGroup, deps Dependencies) {
	service := &authzService{
		cfg:       deps.Config,
		api:       deps.Wallet,
		chain:     deps.Chain,
		sessions:  deps.Sessions,
		hub:       deps.Hub,
		registry:  deps.Registry,
		attempts:  gormAttemptRepository{db: deps.DB},
		publisher: deps.PubSub,
	}
	registerRoutes(rg, service)

	bridge := &chainBridge{authz: service}
	go deps.Subscriber.Subscribe(ctx, pubsub.SubscriptionHandler{
		SubscriptionId: sealWatcherSubscription,
		Handler:        bridge.handleAuthorizationSubmitted,
	})
}

func registerRoutes(rg *gin.RouterGroup, service *authzService) {
	handler := authzHandler{authz: service}

	routes := rg.Group("/session")
	routes.POST("", handler.createSession)
	routes.DELETE("/:id", handler.endSession)
	routes.POST("/:id/authn", handler.authenticate)
	routes.DELETE("/:id/view", handler.cancelView)
	routes.POST("/:id/authz", handler.authorize)

	rg.POST("/voucher", handler.buildVoucher)
}

func (h authzHandler) createSession(c *gin.Context) {
	c.JSON(http.StatusCreated, gin.H{"sessionId": h.authz.CreateSession()})
}

func (h authzHandler) endSession(c *gin.Context) {
	if err := h.authz.EndSession(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h authzHandler) authenticate(c *gin.Context) {
	user, err := h.authz.Authenticate(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h authzHandler) cancelView(c *gin.Context) {
	if err := h.authz.CancelView(c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h authzHandler) authorize(c *gin.Context) {
	body := AuthorizeRequest{}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	response, err := h.authz.Authorize(c.Request.Context(), c.Param("id"), body, c.Query("wait") == "true")
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response)
}

type VoucherRequest struct {
	Interaction *fcl.Interaction `json:"interaction" binding:"required"`
}

func (h authzHandler) buildVoucher(c *gin.Context) {
	body := VoucherRequest{}

	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	voucher, err := h.authz.BuildVoucher(body.Interaction)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, voucher)
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, errSessionNotFound) {
		c.JSON(http.StatusNotFound, reject.NotFoundProblem())
		return
	}
	problem := reject.FclProblem(err)
	c.JSON(problem.Problem.Status, problem.Problem)
}
