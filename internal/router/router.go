package router

import (
	"net/http"
	"time"

	"github.com/blues/raise/internal/chain"
	"github.com/blues/raise/internal/config"
	"github.com/blues/raise/internal/handler"
	"github.com/blues/raise/internal/host"
	"github.com/blues/raise/internal/ledger"
	"github.com/blues/raise/internal/logic"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Setup 内存资产模式下 chainManager 为 nil，链上模式下 token 为 nil
func Setup(cfg *config.Config, db *gorm.DB, h *host.Host, chainManager *chain.Manager, token *ledger.Token) *gin.Engine {
	r := gin.New()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(cors.New(cors.Config{
		AllowAllOrigins:  true,
		AllowMethods:     []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Account", "X-Request-Id"},
		ExposeHeaders:    []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{
			"status":  "ok",
			"service": "raise-service",
			"raises":  len(h.Raises()),
		}
		if chainManager != nil {
			status["chain"] = chainManager.GetHealthStatus(c.Request.Context())
		}
		c.JSON(http.StatusOK, status)
	})

	raiseHandler := handler.NewRaiseHandler(logic.NewRaiseLogic(db, h))
	factoryHandler := handler.NewFactoryHandler(logic.NewFactoryLogic(db, h))
	auth := AuthMiddleware(cfg.Auth)

	// API版本组
	v1 := r.Group("/api/v1")
	{
		v1.GET("/stats", raiseHandler.GetStats)

		proposals := v1.Group("/proposals")
		{
			proposals.GET("", factoryHandler.GetProposals)
			proposals.GET("/:id", factoryHandler.GetProposal)
			proposals.POST("", auth, factoryHandler.CreateProposal)
			proposals.POST("/:id/decision", auth, factoryHandler.DecideProposal)
		}

		f := v1.Group("/factory")
		{
			f.GET("", factoryHandler.GetFactory)
			f.PUT("/implementation", auth, factoryHandler.UpdateImplementation)
			f.PUT("/proxy-admin", auth, factoryHandler.UpdateProxyAdmin)
		}

		raises := v1.Group("/raises")
		{
			raises.GET("", raiseHandler.GetRaises)
			raises.GET("/:address", raiseHandler.GetRaise)
			raises.GET("/:address/receivers", raiseHandler.GetReceivers)
			raises.GET("/:address/investors/:account", raiseHandler.GetInvestor)
			raises.GET("/:address/subscriptions/:sid", raiseHandler.GetSubscription)
			raises.GET("/:address/history", raiseHandler.GetHistory)
			raises.GET("/:address/refunds", raiseHandler.GetRefunds)

			w := raises.Group("/:address", auth)
			{
				w.POST("/subscriptions", raiseHandler.Subscribe)
				w.POST("/subscriptions/:sid/decision", raiseHandler.DecideSubscription)
				w.POST("/issuer-close", raiseHandler.IssuerClose)
				w.POST("/operator-finalize", raiseHandler.OperatorFinalize)
				w.POST("/release-pending", raiseHandler.ReleasePending)
				w.POST("/release-all", raiseHandler.ReleaseAll)
				w.POST("/release-to-issuer", raiseHandler.ReleaseToIssuer)
				w.POST("/close", raiseHandler.Close)
			}
		}

		if token != nil {
			ledgerHandler := handler.NewLedgerHandler(logic.NewLedgerLogic(token, h.Roles()))
			l := v1.Group("/ledger")
			{
				l.GET("/balances/:account", ledgerHandler.GetBalance)
				l.GET("/allowances/:owner/:spender", ledgerHandler.GetAllowance)
				l.POST("/mint", auth, ledgerHandler.Mint)
				l.POST("/approve", auth, ledgerHandler.Approve)
			}
		}
	}

	return r
}
