package cosign

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kollektive-hackathon/fcl-gateway/internal/fcl"
	"github.com/kollektive-hackathon/fcl-gateway/internal/keymgmt"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/middleware"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/reject"
	"github.com/kollektive-hackathon/fcl-gateway/internal/pkg/utils"
	"gorm.io/gorm"
)

type cosignHandler struct {
	cosign *cosignService
}

func RegisterRoutes(
	rg *gin.RouterGroup,
	db *gorm.DB,
	keys keymgmt.SignerProvider,
	verifier middleware.TokenVerifier,
	allowedScripts []string,
) {
	registerRoutes(rg, newCosignService(gormWalletRepository{db: db}, keys, allowedScripts), verifier)
}

func registerRoutes(rg *gin.RouterGroup, service *cosignService, verifier middleware.TokenVerifier) {
	handler := &cosignHandler{cosign: service}

	routes := rg.Group("/cosign")
	routes.POST("", middleware.VerifyAuthToken(verifier), handler.handleCosign)
	routes.GET("/wallet", middleware.VerifyAuthToken(verifier), handler.handleWallet)
}

func (ch cosignHandler) handleCosign(c *gin.Context) {
	body := fcl.Signable{}

	if err := c.BindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, reject.BodyParseProblem())
		return
	}

	response, err := ch.cosign.VerifyAndSign(c.Request.Context(), utils.GetUserExternalId(c), body)
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, response)
}

func (ch cosignHandler) handleWallet(c *gin.Context) {
	custodialWallet, err := ch.cosign.Wallet(c.Request.Context(), utils.GetUserExternalId(c))
	if err != nil {
		c.JSON(err.Problem.Status, err.Problem)
		return
	}

	c.JSON(http.StatusOK, custodialWallet)
}
