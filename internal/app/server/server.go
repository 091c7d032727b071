package server

import (
	"log/slog"
	"net/http"
	"time"

	"chatsync/internal/app/registry"
	"chatsync/internal/app/server/handlers"
	"chatsync/internal/core/services"
	"chatsync/pkg/middleware"
)

type Server struct {
	mux           *http.ServeMux
	log           *slog.Logger
	app           string
	addr          string
	authHandler   *handlers.AuthHandler
	wsHandler     *handlers.WSHandler
	inboxHandler  *handlers.InboxHandler
	usersHandler  *handlers.UsersHandler
	groupsHandler *handlers.GroupsHandler
	convsHandler  *handlers.ConversationsHandler
	mediaHandler  *handlers.MediaHandler
	tokenSvc      *services.TokenService
}

func NewServer(
	log *slog.Logger,
	app, addr string,
	profileSvc services.IProfileService,
	tokenSvc *services.TokenService,
	managerSvc services.IManagerService,
	inboxSvc services.IInboxService,
	membershipSvc services.IMembershipService,
	messageSvc services.IMessageService,
	mediaSvc services.IMediaService,
	hub *registry.Registry,
) *Server {
	s := &Server{
		mux:           http.NewServeMux(),
		log:           log,
		app:           app,
		addr:          addr,
		authHandler:   handlers.NewAuthHandler(profileSvc, tokenSvc),
		wsHandler:     handlers.NewWSHandler(hub, managerSvc),
		inboxHandler:  handlers.NewInboxHandler(inboxSvc),
		usersHandler:  handlers.NewUsersHandler(profileSvc),
		groupsHandler: handlers.NewGroupsHandler(membershipSvc),
		convsHandler:  handlers.NewConversationsHandler(membershipSvc, messageSvc),
		mediaHandler:  handlers.NewMediaHandler(mediaSvc),
		tokenSvc:      tokenSvc,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	auth := middleware.AuthMiddleware(s.tokenSvc)
	protected := func(h http.HandlerFunc) http.Handler {
		return auth(h)
	}

	// Public: identity-token exchange
	s.mux.HandleFunc("POST /auth/register", s.authHandler.Register)
	s.mux.HandleFunc("POST /auth/login", s.authHandler.Login)

	// Protected: everything below carries the session JWT
	s.mux.Handle("/ws", protected(s.wsHandler.Handler))
	s.mux.Handle("GET /inbox", protected(s.inboxHandler.List))
	s.mux.Handle("GET /users", protected(s.usersHandler.List))
	s.mux.Handle("PUT /users/location", protected(s.usersHandler.UpdateLocation))
	s.mux.Handle("POST /conversations/direct", protected(s.convsHandler.LinkDirect))
	s.mux.Handle("POST /conversations/{cid}/read", protected(s.convsHandler.MarkRead))
	s.mux.Handle("PATCH /conversations/{cid}/messages/{mid}", protected(s.convsHandler.EditMessage))
	s.mux.Handle("DELETE /conversations/{cid}/messages/{mid}", protected(s.convsHandler.DeleteMessage))
	s.mux.Handle("POST /groups", protected(s.groupsHandler.Create))
	s.mux.Handle("GET /groups/{id}", protected(s.groupsHandler.Get))
	s.mux.Handle("POST /media", protected(s.mediaHandler.Upload))
}

func (s *Server) Start() error {
	handler := middleware.TracerMiddleware(s.app)(middleware.RequestLogger(s.log)(s.mux))
	server := &http.Server{
		Addr:        s.addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: /ws connections stay open indefinitely
	}

	s.log.Info("server starting", "addr", s.addr)
	return server.ListenAndServe()
}
