package routes

import (
	"github.com/gin-gonic/gin"
	config "github.com/phillip/bhandara-tracker-go/config"
	controllers "github.com/phillip/bhandara-tracker-go/controllers"
	middleware "github.com/phillip/bhandara-tracker-go/middleware"
)

func SetupRoutes(r *gin.Engine, cfg *config.Config) {
	// public
	r.POST("/auth/register", controllers.Register(cfg))
	r.POST("/auth/login", controllers.Login(cfg))
	r.POST("/auth/logout", controllers.Logout(cfg))

	// read-only transparency pages, no auth
	public := r.Group("/public")
	{
		public.GET("/bhandaras", controllers.ListBhandaras(cfg))
		public.GET("/bhandaras/:id", controllers.GetBhandara(cfg))
	}

	// protected
	auth := middleware.AuthMiddleware(cfg)
	superAdmin := middleware.RequireSuperAdmin()

	r.GET("/auth/me", auth, controllers.CurrentAdmin(cfg))

	admins := r.Group("/admins")
	admins.Use(auth, superAdmin)
	{
		admins.POST("", controllers.CreateAdmin(cfg))
	}

	donors := r.Group("/donors")
	donors.Use(auth)
	{
		donors.POST("", controllers.CreateDonor(cfg))
		donors.GET("", controllers.ListDonors(cfg))
		donors.GET("/:id", controllers.GetDonor(cfg))
		donors.PATCH("/:id", controllers.UpdateDonor(cfg))
		donors.GET("/:id/donations", controllers.ListDonorDonations(cfg))
	}

	bhandaras := r.Group("/bhandaras")
	bhandaras.Use(auth)
	{
		bhandaras.POST("", controllers.CreateBhandara(cfg))
		bhandaras.GET("", controllers.ListBhandaras(cfg))
		bhandaras.GET("/:id", controllers.GetBhandara(cfg))
		bhandaras.PATCH("/:id", controllers.UpdateBhandara(cfg))
		bhandaras.DELETE("/:id", controllers.DeleteBhandara(cfg))

		bhandaras.POST("/:id/spendings", controllers.CreateBhandaraSpending(cfg))
		bhandaras.GET("/:id/spendings", controllers.ListBhandaraSpendings(cfg))
		bhandaras.PATCH("/:id/spendings/:spendingId", controllers.UpdateBhandaraSpending(cfg))
		bhandaras.DELETE("/:id/spendings/:spendingId", controllers.DeleteBhandaraSpending(cfg))
		bhandaras.PATCH("/:id/spendings/:spendingId/lock", controllers.LockBhandaraSpending(cfg))
		bhandaras.PATCH("/:id/spendings/:spendingId/unlock", superAdmin, controllers.UnlockBhandaraSpending(cfg))

		bhandaras.POST("/:id/import/donations", controllers.ImportDonations(cfg))
		bhandaras.POST("/:id/import/spendings", controllers.ImportSpendings(cfg))
	}

	donations := r.Group("/donations")
	donations.Use(auth)
	{
		donations.POST("", controllers.CreateDonation(cfg))
		donations.GET("", controllers.ListDonations(cfg))
		donations.PATCH("/:id", controllers.UpdateDonation(cfg))
		donations.DELETE("/:id", controllers.DeleteDonation(cfg))
		donations.PATCH("/:id/lock", controllers.LockDonation(cfg))
		donations.PATCH("/:id/unlock", superAdmin, controllers.UnlockDonation(cfg))
	}

	items := r.Group("/spending-items")
	items.Use(auth)
	{
		items.POST("", controllers.CreateSpendingItem(cfg))
		items.GET("", controllers.ListSpendingItems(cfg))
		items.PATCH("/:id", controllers.UpdateSpendingItem(cfg))
		items.DELETE("/:id", controllers.DeleteSpendingItem(cfg))
	}

	stats := r.Group("/stats")
	stats.Use(auth)
	{
		stats.GET("", controllers.GetOverallStats(cfg))
		stats.GET("/bhandaras/:id", controllers.GetBhandaraStats(cfg))
	}
}
