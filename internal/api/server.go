package api

import (
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	swaggerfiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"

	"github.com/thefndrs/allons-api/docs"
	v1 "github.com/thefndrs/allons-api/internal/api/handler/v1"
	"github.com/thefndrs/allons-api/internal/api/middleware"
	"github.com/thefndrs/allons-api/internal/catalog"
	"github.com/thefndrs/allons-api/internal/config"
	"github.com/thefndrs/allons-api/internal/notifier"
	"github.com/thefndrs/allons-api/internal/repository"
	"github.com/thefndrs/allons-api/internal/repository/dao"
	"github.com/thefndrs/allons-api/internal/service"
)

type Server struct {
	Config *config.AppConfig
	Router *gin.Engine

	catalog    *catalog.Catalog
	hub        *notifier.Hub
	dispatcher *notifier.Dispatcher
}

func NewServer(conf *config.AppConfig, db *gorm.DB) *Server {
	gin.SetMode(conf.Gin.Mode)
	engine := gin.New()

	s := &Server{
		Config:  conf,
		Router:  engine,
		catalog: catalog.New(),
		hub:     notifier.NewHub(),
	}
	go s.hub.Run()

	mailer := notifier.NewMailer(conf.Mail)
	socialRepo := repository.NewSocialRepository(dao.NewFriendDAO(db), dao.NewChatDAO(db))
	s.dispatcher = notifier.NewDispatcher(mailer, s.hub, socialRepo, s.catalog, conf.API.FrontendURL)

	s.MountMiddlewares()

	authHandler := s.initAuthHandler(db)
	userHandler := s.initUserHandler(db)
	eventHandler := s.initEventHandler(db)
	reservationHandler := s.initReservationHandler(db)
	ticketHandler := s.initTicketHandler(db)
	notificationHandler := s.initNotificationHandler(db)
	s.MountHandlers(authHandler, userHandler, eventHandler, reservationHandler, ticketHandler, notificationHandler)

	return s
}

func (s *Server) initAuthHandler(db *gorm.DB) *v1.AuthHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewAuthService(repo)
	handler := v1.NewAuthHandler(s.Config.API, svc)

	return handler
}

func (s *Server) initUserHandler(db *gorm.DB) *v1.UserHandler {
	userDAO := dao.NewUserDAO(db)
	repo := repository.NewUserRepository(userDAO)
	svc := service.NewUserService(repo)
	handler := v1.NewUserHandler(svc)

	return handler
}

func (s *Server) initEventHandler(db *gorm.DB) *v1.EventHandler {
	reservationDAO := dao.NewReservationDAO(db)
	repo := repository.NewReservationRepository(reservationDAO)
	svc := service.NewReservationService(repo, s.catalog)
	handler := v1.NewEventHandler(svc)

	return handler
}

func (s *Server) initReservationHandler(db *gorm.DB) *v1.ReservationHandler {
	reservationRepo := repository.NewReservationRepository(dao.NewReservationDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	socialRepo := repository.NewSocialRepository(dao.NewFriendDAO(db), dao.NewChatDAO(db))
	svc := service.NewReservationService(reservationRepo, s.catalog)
	gSvc := service.NewGiftService(
		repository.NewTicketRepository(dao.NewTicketDAO(db)),
		reservationRepo, userRepo, socialRepo, s.catalog, s.dispatcher)
	uSvc := service.NewUserService(userRepo)
	handler := v1.NewReservationHandler(svc, gSvc, uSvc)

	return handler
}

func (s *Server) initTicketHandler(db *gorm.DB) *v1.TicketHandler {
	ticketRepo := repository.NewTicketRepository(dao.NewTicketDAO(db))
	reservationRepo := repository.NewReservationRepository(dao.NewReservationDAO(db))
	userRepo := repository.NewUserRepository(dao.NewUserDAO(db))
	socialRepo := repository.NewSocialRepository(dao.NewFriendDAO(db), dao.NewChatDAO(db))
	svc := service.NewGiftService(ticketRepo, reservationRepo, userRepo, socialRepo, s.catalog, s.dispatcher)
	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewTicketHandler(svc, uSvc)

	return handler
}

func (s *Server) initNotificationHandler(db *gorm.DB) *v1.NotificationHandler {
	socialRepo := repository.NewSocialRepository(dao.NewFriendDAO(db), dao.NewChatDAO(db))
	uSvc := service.NewUserService(repository.NewUserRepository(dao.NewUserDAO(db)))
	handler := v1.NewNotificationHandler(s.hub, socialRepo, uSvc)

	return handler
}

func (s *Server) MountMiddlewares() {
	// Logger and Recovery are needed unless we use gin.Default().
	s.Router.Use(gin.Logger())
	s.Router.Use(gin.Recovery())
	s.Router.Use(requestid.New())
	s.Router.Use(middleware.ConfigCORS(s.Config.API.AllowedCORSDomains))
}

func (s *Server) MountHandlers(
	authHandler *v1.AuthHandler,
	userHandler *v1.UserHandler,
	eventHandler *v1.EventHandler,
	reservationHandler *v1.ReservationHandler,
	ticketHandler *v1.TicketHandler,
	notificationHandler *v1.NotificationHandler,
) {
	const basePath = "/api/v1"

	public := s.Router.Group(basePath)
	{
		public.POST("/auth/signup", authHandler.HandleSignup)
		public.POST("/auth/login", authHandler.HandleLogin)
		public.GET("/events", eventHandler.HandleListEvents)
		public.GET("/events/:eventID", eventHandler.HandleGetEvent)
		// The gift preview is public so recipients without an account can
		// see what they were sent before signing up.
		public.GET("/gifts/:token", ticketHandler.HandlePreviewGift)
	}

	authed := s.Router.Group(basePath, middleware.NewAuthenticator(s.Config.API.JWTSigningKey).VerifyJWT())
	{
		authed.GET("/users/:userID", userHandler.HandleGetUser)

		authed.PUT("/events/:eventID/reservation", reservationHandler.HandleUpsertReservation)
		authed.GET("/events/:eventID/reservation", reservationHandler.HandleGetReservation)
		authed.DELETE("/events/:eventID/reservation", reservationHandler.HandleCancelReservation)

		authed.POST("/events/:eventID/tickets/gift", ticketHandler.HandleGiftTickets)
		authed.GET("/events/:eventID/tickets", ticketHandler.HandleListMyTickets)
		authed.GET("/gifts/sent", ticketHandler.HandleListSentGifts)
		authed.POST("/gifts/:token/redeem", ticketHandler.HandleRedeemGift)

		authed.GET("/notifications/ws", notificationHandler.HandleWebSocket)
		authed.GET("/messages/:userID", notificationHandler.HandleListMessages)
	}

	s.Router.GET("/", v1.HandleHealthcheck)

	// Setup Swagger UI.
	docs.SwaggerInfo.Host = s.Config.API.BaseURL
	docs.SwaggerInfo.BasePath = basePath
	docs.SwaggerInfo.Title = "Allons API"
	docs.SwaggerInfo.Description = "Event reservations, ticket gifting and redemption."
	docs.SwaggerInfo.Version = "1.0"
	s.Router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerfiles.Handler))
}
