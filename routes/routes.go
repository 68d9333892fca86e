package routes

import (
	"yumspot-api/handlers"
	"yumspot-api/middleware"
	"yumspot-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, svc *handlers.Services) {
	handlers.RegisterValidators()

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", handlers.Register)
		public.POST("/auth/login", handlers.Login)

		// Catalog (no auth needed)
		public.GET("/restaurants", handlers.ListRestaurants)
		public.GET("/restaurants/:id", handlers.GetRestaurant)
		public.GET("/restaurants/:id/foods", handlers.GetRestaurantFoods)
		public.GET("/restaurants/:id/reviews", handlers.GetRestaurantReviews)
		public.GET("/categories", handlers.ListCategories)
		public.GET("/categories/:id/foods", handlers.GetCategoryFoods)
		public.GET("/foods", handlers.ListFoods)
		public.GET("/foods/discounted", handlers.ListDiscountedFoods)
		public.GET("/foods/:id", handlers.GetFood)
		public.GET("/foods/:id/reviews", handlers.GetFoodReviews)

		public.GET("/deliveries/lifecycle", handlers.GetDeliveryLifecycle)

		// Signed by the payment provider, not by our tokens
		public.POST("/payments/webhook", svc.StripeWebhook)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/users/current", handlers.GetCurrentUser)
		auth.PATCH("/users/current", handlers.UpdateCurrentUser)
		auth.POST("/users/current/avatar", svc.UploadAvatar)
		auth.GET("/users/current/follows", handlers.GetMyFollows)

		// Social graph
		auth.POST("/restaurants/:id/like", handlers.LikeRestaurant)
		auth.POST("/restaurants/:id/follow", handlers.FollowRestaurant)
		auth.POST("/restaurants/:id/add-review", handlers.AddRestaurantReview)
		auth.POST("/foods/:id/add-review", handlers.AddFoodReview)
		auth.POST("/reviews/:id/like", handlers.LikeReview)
		auth.DELETE("/reviews/:id", handlers.DeleteReview)

		// Orders & payments
		auth.POST("/orders", handlers.PlaceOrder)
		auth.GET("/orders", handlers.GetMyOrders)
		auth.GET("/orders/:id", handlers.GetOrderDetail)
		auth.POST("/orders/:id/payments", handlers.PayOrder)
		auth.GET("/payments", handlers.ListPayments)
		auth.POST("/payments/payment-sheet", svc.PaymentSheet)
	}

	// ── Restaurant owner routes ────────────────────────────────────
	restaurant := r.Group("/api/restaurant")
	restaurant.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleRestaurant, models.RoleAdmin))
	{
		// Restaurant management
		restaurant.POST("/restaurants", handlers.CreateRestaurant)
		restaurant.GET("/restaurants", handlers.GetMyRestaurants)
		restaurant.PATCH("/restaurants/:id", handlers.UpdateRestaurant)
		restaurant.POST("/restaurants/:id/image", svc.UploadRestaurantImage)

		// Food management
		restaurant.POST("/restaurants/:id/foods", handlers.AddFood)
		restaurant.PATCH("/foods/:id", handlers.UpdateFood)
		restaurant.DELETE("/foods/:id", handlers.DeleteFood)
		restaurant.POST("/foods/:id/image", svc.UploadFoodImage)

		// Order management
		restaurant.GET("/orders", handlers.GetRestaurantOrders)
		restaurant.PUT("/orders/:id/delivery", handlers.UpdateDelivery)
	}

	// ── Statistics ─────────────────────────────────────────────────
	stats := r.Group("/api/stats")
	stats.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleAdmin, models.RoleRestaurant))
	{
		stats.GET("/stats-category", handlers.StatsCategory)
		stats.GET("/stats-food", handlers.StatsFood)
		stats.GET("/stats-restaurant", handlers.StatsRestaurant)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/dashboard", handlers.AdminDashboard)
		admin.GET("/users", handlers.AdminGetAllUsers)
		admin.POST("/users", handlers.AdminCreateUser)
		admin.PUT("/users/:id/approve", handlers.ApproveUser)
		admin.PUT("/users/:id/deactivate", handlers.DeactivateUser)
		admin.GET("/owners", handlers.RestaurantsPerOwner)
		admin.POST("/categories", handlers.CreateCategory)
		admin.POST("/categories/:id/icon", svc.UploadCategoryIcon)
		admin.GET("/orders", handlers.AdminGetAllOrders)
	}
}
