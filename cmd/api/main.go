package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/gridscope/gridscope-backend/internal/alarms"
	"github.com/gridscope/gridscope-backend/internal/cache"
	"github.com/gridscope/gridscope-backend/internal/config"
	"github.com/gridscope/gridscope-backend/internal/handlers"
	"github.com/gridscope/gridscope-backend/internal/middleware"
	"github.com/gridscope/gridscope-backend/internal/models"
	"github.com/gridscope/gridscope-backend/internal/repository"
	"github.com/gridscope/gridscope-backend/internal/service"
	"github.com/gridscope/gridscope-backend/internal/timeseries"
	"github.com/gridscope/gridscope-backend/internal/topology"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Note: .env file not found, using default values")
	}

	// Load configuration
	cfg := config.LoadConfig()

	// Build the connection string
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.SSLMode,
	)

	log.Printf("🔌 Connecting to database: %s@%s:%s/%s",
		cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName)

	// Connect to the database
	// TranslateError maps driver unique-violation errors to
	// gorm.ErrDuplicatedKey, which the connection upsert retry relies on.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("❌ Failed to connect to database:", err)
	}

	log.Println("✅ Successfully connected to PostgreSQL!")

	// Auto-migrate the models
	err = db.AutoMigrate(
		&models.User{},
		&models.GridElement{},
		&models.Connection{},
		&models.LinePathPoint{},
		&models.Event{},
	)
	if err != nil {
		log.Fatal("❌ Failed to auto migrate:", err)
	}
	log.Println("✅ Database tables migrated successfully!")

	// Redis mirror for active high/critical alarms. Optional: a failed
	// ping only disables the fast read path.
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("⚠️ Redis unavailable at %s, alarm cache disabled: %v", cfg.RedisAddr, err)
		rdb = nil
	} else {
		log.Println("✅ Connected to Redis!")
	}
	alarmCache := cache.NewAlarmCache(rdb, cfg.AlarmCacheTTL)

	// InfluxDB mirror for raw measurement history. Optional as well.
	measurements := timeseries.NewMeasurementStore(cfg.InfluxURL, cfg.InfluxToken, cfg.InfluxOrg, cfg.InfluxBucket)
	defer measurements.Close()
	if cfg.InfluxURL == "" {
		log.Println("⚠️ INFLUX_URL not set, measurement history disabled")
	} else {
		log.Printf("✅ Measurement history enabled at %s", cfg.InfluxURL)
	}

	// Check and seed test data
	checkAndSeedTestData(db)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	elementRepo := repository.NewElementRepository(db)
	eventRepo := repository.NewEventRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	adminService := service.NewAdminService(userRepo)
	topologyService := service.NewTopologyService(elementRepo)
	alarmService := service.NewAlarmService(eventRepo, elementRepo, alarms.DefaultRuleSet(), alarmCache, measurements)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	adminHandler := handlers.NewAdminHandler(adminService)
	topologyHandler := handlers.NewTopologyHandler(topologyService)
	alarmHandler := handlers.NewAlarmHandler(alarmService)

	// Configure the router
	router := gin.Default()

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Content-Length",
			"Accept-Encoding",
			"Authorization",
			"Accept",
			"Cache-Control",
			"X-Requested-With",
		},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// ================ PUBLIC ENDPOINTS ================

	public := router.Group("/api/auth")
	{
		public.POST("/register", authHandler.Register)
		public.POST("/login", authHandler.Login)
		public.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":   "ok",
				"service":  "auth",
				"database": "connected",
			})
		})
	}

	// ================ PROTECTED ENDPOINTS ================

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	{
		// Auth routes
		auth := protected.Group("/auth")
		{
			auth.GET("/me", authHandler.GetMe)
		}

		// Grid elements
		elements := protected.Group("/elements")
		{
			elements.GET("", topologyHandler.ListElements)
			elements.GET("/:id", topologyHandler.GetElement)
			elements.PUT("/:id", topologyHandler.UpdateElement)
			elements.GET("/:id/path", topologyHandler.GetLinePath)
			elements.PUT("/:id/path", topologyHandler.ReplaceLinePath)
			elements.GET("/:id/measurements", alarmHandler.GetRecentMeasurements)
			elements.GET("/:id/alarms/:metric", alarmHandler.GetActiveAlarm)
		}

		// Connections
		connections := protected.Group("/connections")
		{
			connections.GET("", topologyHandler.ListConnections)
			connections.POST("", topologyHandler.UpsertConnection)
			connections.DELETE("", topologyHandler.Disconnect)
		}

		// Topology views
		protected.GET("/topology", topologyHandler.GetTopologyView)

		// Events
		events := protected.Group("/events")
		{
			events.GET("", alarmHandler.ListEvents)
			events.POST("", alarmHandler.CreateEvent)
			events.GET("/:id", alarmHandler.GetEvent)
			events.POST("/:id/acknowledge", alarmHandler.AcknowledgeEvent)
			events.POST("/:id/resolve", alarmHandler.ResolveEvent)
			events.PUT("/:id/severity", alarmHandler.UpdateEventSeverity)
			events.PUT("/:id/status", alarmHandler.UpdateEventStatus)
			events.DELETE("/:id", alarmHandler.DeleteEvent)
		}

		// Measurement ingest
		protected.POST("/measurements", alarmHandler.IngestMeasurements)

		// Admin routes
		admin := protected.Group("/admin")
		admin.Use(middleware.RoleMiddleware("admin"))
		{
			admin.GET("/users", adminHandler.GetUsers)
			admin.POST("/users", adminHandler.CreateUser)
			admin.PUT("/users/:id", adminHandler.UpdateUser)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
			admin.PUT("/users/:id/password", adminHandler.ChangePassword)

			// Topology changes restricted to admins
			admin.POST("/elements", topologyHandler.CreateElement)
			admin.DELETE("/elements/:id", topologyHandler.DeleteElement)
		}
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		var dbStatus string
		sqlDB, err := db.DB()
		if err != nil {
			dbStatus = "error_getting_db"
		} else {
			err = sqlDB.Ping()
			if err != nil {
				dbStatus = "disconnected"
			} else {
				dbStatus = "connected"
			}
		}

		redisStatus := "connected"
		if err := alarmCache.Ping(c.Request.Context()); err != nil {
			redisStatus = "disconnected"
		}
		influxStatus := "connected"
		if err := measurements.Ping(c.Request.Context()); err != nil {
			influxStatus = "disconnected"
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ok",
			"service":     "gridscope-api",
			"version":     "1.0.0",
			"database":    dbStatus,
			"redis":       redisStatus,
			"influxdb":    influxStatus,
			"environment": getEnv("GIN_MODE", "debug"),
		})
	})

	// Root endpoint
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "GridScope API",
			"version": "1.0.0",
			"endpoints": gin.H{
				"auth": gin.H{
					"POST /api/auth/register": "Register new user",
					"POST /api/auth/login":    "Login user",
					"GET  /api/auth/me":       "Get current user",
				},
				"elements": gin.H{
					"GET    /api/elements":                      "List grid elements",
					"GET    /api/elements/:id":                  "Get element by ID",
					"PUT    /api/elements/:id":                  "Update element",
					"GET    /api/elements/:id/path":             "Get line path",
					"PUT    /api/elements/:id/path":             "Replace line path",
					"GET    /api/elements/:id/measurements":     "Get recent measurements",
					"GET    /api/elements/:id/alarms/:metric":   "Get active alarm",
				},
				"topology": gin.H{
					"GET    /api/topology":    "Topology view (graph, adjacency, matrix, hierarchical)",
					"GET    /api/connections": "List connections",
					"POST   /api/connections": "Create or update connection",
					"DELETE /api/connections": "Open a connection",
				},
				"events": gin.H{
					"GET    /api/events":                 "List events",
					"POST   /api/events":                 "Create event",
					"GET    /api/events/:id":             "Get event by ID",
					"POST   /api/events/:id/acknowledge": "Acknowledge event",
					"POST   /api/events/:id/resolve":     "Resolve event",
					"DELETE /api/events/:id":             "Delete resolved event",
				},
				"measurements": gin.H{
					"POST /api/measurements": "Ingest measurement batch",
				},
				"admin": gin.H{
					"GET    /api/admin/users":        "Get all users",
					"POST   /api/admin/users":        "Create user",
					"PUT    /api/admin/users/:id":    "Update user",
					"DELETE /api/admin/users/:id":    "Delete user",
					"POST   /api/admin/elements":     "Create grid element",
					"DELETE /api/admin/elements/:id": "Delete grid element",
				},
			},
		})
	})

	// 404 handler
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Not Found",
			"message": "The requested endpoint does not exist",
			"path":    c.Request.URL.Path,
		})
	})

	log.Printf("\n🚀 Server starting on http://localhost%s", cfg.ServerPort)
	log.Println("📋 Available endpoints:")
	log.Println("")
	log.Println("    🔓 Public endpoints:")
	log.Println("        POST /api/auth/register                - Register user")
	log.Println("        POST /api/auth/login                   - Login user")
	log.Println("        GET  /health                           - Health check")
	log.Println("")
	log.Println("    🔐 Protected endpoints (require JWT):")
	log.Println("        GET  /api/elements                     - List grid elements")
	log.Println("        GET  /api/topology                     - Topology views")
	log.Println("        POST /api/connections                  - Upsert connection")
	log.Println("        GET  /api/events                       - List events")
	log.Println("        POST /api/measurements                 - Ingest measurements")
	log.Println("")
	log.Println("    👑 Admin endpoints:")
	log.Println("        GET    /api/admin/users                - Get all users")
	log.Println("        POST   /api/admin/elements             - Create grid element")
	log.Println("        DELETE /api/admin/elements/:id         - Delete grid element")
	log.Println("")

	// Start the server
	if err := router.Run(cfg.ServerPort); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func checkAndSeedTestData(db *gorm.DB) {
	// Check whether the test admin user exists
	var adminCount int64
	db.Model(&models.User{}).Where("email = ?", "admin@gridscope.io").Count(&adminCount)

	if adminCount == 0 {
		log.Println("📝 Creating test admin user...")

		admin := &models.User{
			ID:           "admin-001",
			Name:         "Administrator",
			Email:        "admin@gridscope.io",
			PasswordHash: "$2a$12$L2JMvBJDsz5JKmpSFcmweOZiioqbeUxrTVW9v71QyQWKyj3DwclF6", // 123456
			Role:         models.RoleAdmin,
		}

		if err := db.Create(admin).Error; err != nil {
			log.Printf("⚠️ Failed to create admin user: %v", err)
		} else {
			log.Println("✅ Test admin user created")
		}
	}

	seedDemoGrid(db)

	log.Println("🎉 Test data check completed!")
}

// seedDemoGrid creates a minimal substation: a 132 kV slack bus feeding
// an 11 kV bus through a transformer, with a generator, a load and an
// overhead line hanging off the buses.
func seedDemoGrid(db *gorm.DB) {
	var elementCount int64
	db.Model(&models.GridElement{}).Where("id = ?", "bus-132-main").Count(&elementCount)
	if elementCount > 0 {
		log.Println("✅ Demo grid already exists")
		return
	}

	log.Println("📝 Creating demo grid...")

	slack := models.BusSlack
	pq := models.BusPQ
	genCapacity := 50.0
	genMin := 10.0
	genMax := 55.0
	minCap := 0.0
	maxCap := 60.0
	priority := 1
	primaryV := 132.0
	secondaryV := 11.0
	lat1, lon1 := 43.238949, 76.889709
	lat2, lon2 := 43.25654, 76.92848

	elements := []models.GridElement{
		{
			ID:           "bus-132-main",
			Name:         "Main 132kV Bus",
			ElementType:  models.ElementBus,
			Status:       models.StatusActive,
			DeleteState:  models.DeleteStateActive,
			VoltageLevel: 132,
			BusType:      &slack,
			Latitude:     &lat1,
			Longitude:    &lon1,
			Description:  "Primary feed bus",
		},
		{
			ID:           "bus-11-dist",
			Name:         "Distribution 11kV Bus",
			ElementType:  models.ElementBus,
			Status:       models.StatusActive,
			DeleteState:  models.DeleteStateActive,
			VoltageLevel: 11,
			BusType:      &pq,
			Description:  "Distribution bus",
		},
		{
			ID:            "gen-01",
			Name:          "Gas Turbine 1",
			ElementType:   models.ElementGenerator,
			Status:        models.StatusActive,
			DeleteState:   models.DeleteStateActive,
			VoltageLevel:  132,
			RatedCapacity: &genCapacity,
			MinCapacity:   &genMin,
			MaxCapacity:   &genMax,
			Description:   "Peaking unit",
		},
		{
			ID:           "load-01",
			Name:         "Industrial Feeder A",
			ElementType:  models.ElementLoad,
			Status:       models.StatusActive,
			DeleteState:  models.DeleteStateActive,
			VoltageLevel: 11,
			MinCapacity:  &minCap,
			MaxCapacity:  &maxCap,
			Priority:     &priority,
			Description:  "Industrial zone feeder",
		},
		{
			ID:               "tx-01",
			Name:             "Step-down Transformer T1",
			ElementType:      models.ElementTransformer,
			Status:           models.StatusActive,
			DeleteState:      models.DeleteStateActive,
			VoltageLevel:     132,
			PrimaryVoltage:   &primaryV,
			SecondaryVoltage: &secondaryV,
			Description:      "132/11 kV",
		},
		{
			ID:           "line-01",
			Name:         "Overhead Line L1",
			ElementType:  models.ElementLine,
			Status:       models.StatusActive,
			DeleteState:  models.DeleteStateActive,
			VoltageLevel: 132,
			Description:  "132 kV intertie",
		},
	}

	for i := range elements {
		if err := db.Create(&elements[i]).Error; err != nil {
			log.Printf("⚠️ Failed to create element %s: %v", elements[i].ID, err)
			return
		}
	}

	pairs := [][2]string{
		{"bus-132-main", "gen-01"},
		{"bus-132-main", "tx-01"},
		{"bus-132-main", "line-01"},
		{"bus-11-dist", "tx-01"},
		{"bus-11-dist", "load-01"},
	}
	for i, pair := range pairs {
		conn := models.Connection{
			ID:             fmt.Sprintf("conn-%02d", i+1),
			FromElementID:  pair[0],
			ToElementID:    pair[1],
			PairKey:        topology.PairKey(pair[0], pair[1]),
			ConnectionType: "electrical",
			IsConnected:    true,
		}
		if err := db.Create(&conn).Error; err != nil {
			log.Printf("⚠️ Failed to create connection %s: %v", conn.ID, err)
		}
	}

	points := []models.LinePathPoint{
		{LineID: "line-01", SequenceOrder: 0, Latitude: lat1, Longitude: lon1, PointType: models.PointStart},
		{LineID: "line-01", SequenceOrder: 1, Latitude: 43.2471, Longitude: 76.9090, PointType: models.PointIntermediate},
		{LineID: "line-01", SequenceOrder: 2, Latitude: lat2, Longitude: lon2, PointType: models.PointEnd},
	}
	lengthKm := topology.PathLengthKm(points)
	for i := range points {
		if err := db.Create(&points[i]).Error; err != nil {
			log.Printf("⚠️ Failed to create path point: %v", err)
		}
	}
	if err := db.Model(&models.GridElement{}).Where("id = ?", "line-01").
		Update("length_km", lengthKm).Error; err != nil {
		log.Printf("⚠️ Failed to set line length: %v", err)
	}

	log.Println("✅ Demo grid created")
}
