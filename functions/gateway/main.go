package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/gorillamux"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/soulpass/api/functions/gateway/handlers"
	"github.com/soulpass/api/functions/gateway/handlers/dynamodb_handlers"
	"github.com/soulpass/api/functions/gateway/helpers"
	"github.com/soulpass/api/functions/gateway/services"
	"github.com/soulpass/api/functions/gateway/transport"
)

type AuthType string

const (
	None    AuthType = "none"
	Check   AuthType = "check"
	Require AuthType = "require"
)

type Route struct {
	Path    string
	Method  string
	Handler func(http.ResponseWriter, *http.Request) http.HandlerFunc
	Auth    AuthType
}

var Routes []Route

func init() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	Routes = []Route{
		{"/api/auth/session", "POST", handlers.CreateSessionHandler, None},
		{"/api/event", "POST", dynamodb_handlers.CreateEventHandler, Require},
		{"/api/events", "GET", dynamodb_handlers.ListEventsHandler, None},
		{"/api/event/{" + helpers.EVENT_ID_KEY + "}", "GET", dynamodb_handlers.GetEventHandler, Check},
		{"/api/event/{" + helpers.EVENT_ID_KEY + "}", "PUT", dynamodb_handlers.UpdateEventHandler, Require},
		{"/api/event/{" + helpers.EVENT_ID_KEY + "}/checkin-code", "GET", dynamodb_handlers.GetCheckinCodeHandler, Require},
		{"/api/event/{" + helpers.EVENT_ID_KEY + "}/rsvp", "POST", dynamodb_handlers.RequestJoinHandler, Require},
		{"/api/event/{" + helpers.EVENT_ID_KEY + "}/rsvp/{" + helpers.USER_ID_KEY + "}", "GET", dynamodb_handlers.GetEventRsvpByPkHandler, None},
		{"/api/event/{" + helpers.EVENT_ID_KEY + "}/rsvp/{" + helpers.RSVP_ID_KEY + "}/approve", "PUT", dynamodb_handlers.ApproveEventRsvpHandler, Require},
		{"/api/event/{" + helpers.EVENT_ID_KEY + "}/rsvp/{" + helpers.RSVP_ID_KEY + "}/checkin", "POST", dynamodb_handlers.CheckinEventRsvpHandler, Require},
		{"/api/event/{" + helpers.EVENT_ID_KEY + "}/rsvps/pending", "GET", dynamodb_handlers.ListPendingEventRsvpsHandler, Require},
		{"/api/event/{" + helpers.EVENT_ID_KEY + "}/rsvps/approved", "GET", dynamodb_handlers.ListApprovedEventRsvpsHandler, None},
		{"/api/profile", "PUT", dynamodb_handlers.UpdateProfileHandler, Require},
		{"/api/profile/{" + helpers.ADDRESS_KEY + "}", "GET", dynamodb_handlers.GetProfileHandler, None},
		{"/api/profile/{" + helpers.ADDRESS_KEY + "}/rsvps", "GET", dynamodb_handlers.GetEventRsvpsByUserIDHandler, None},
		{"/api/profile/{" + helpers.ADDRESS_KEY + "}/events", "GET", dynamodb_handlers.GetEventsByOrganizerHandler, None},
	}
}

type App struct {
	Router *mux.Router
}

func NewApp() *App {
	app := &App{
		Router: mux.NewRouter(),
	}
	app.Router.Use(withContext)
	return app
}

func (app *App) SetupRoutes(routes []Route) {
	for _, route := range routes {
		app.addRoute(route)
	}
}

// bearerAddress extracts and validates the wallet-session token, returning the
// wallet address it was issued for.
func bearerAddress(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", fmt.Errorf("missing Authorization header")
	}
	token := strings.TrimPrefix(header, "Bearer ")
	if token == header {
		return "", fmt.Errorf("malformed Authorization header")
	}
	return services.ParseSessionToken(token)
}

func sendUnauthorized(w http.ResponseWriter, err error) {
	log.Printf("ERR: rejected request: %v", err)
	body, _ := json.Marshal(map[string]string{
		"kind":    "unauthorized",
		"message": "a valid wallet session is required",
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write(body)
}

func (app *App) addRoute(route Route) {
	var handler http.HandlerFunc
	switch route.Auth {
	case Require:
		handler = func(w http.ResponseWriter, r *http.Request) {
			address, err := bearerAddress(r)
			if err != nil {
				sendUnauthorized(w, err)
				return
			}
			ctx := context.WithValue(r.Context(), helpers.WalletAddressKey, address)
			route.Handler(w, r).ServeHTTP(w, r.WithContext(ctx))
		}
	case Check:
		handler = func(w http.ResponseWriter, r *http.Request) {
			// best effort: attach the address when a valid session is
			// presented, proceed anonymously otherwise
			if address, err := bearerAddress(r); err == nil {
				ctx := context.WithValue(r.Context(), helpers.WalletAddressKey, address)
				r = r.WithContext(ctx)
			}
			route.Handler(w, r).ServeHTTP(w, r)
		}
	default:
		handler = func(w http.ResponseWriter, r *http.Request) {
			route.Handler(w, r).ServeHTTP(w, r)
		}
	}

	app.Router.HandleFunc(route.Path, handler).Methods(route.Method).Name(route.Path)
}

func (app *App) SetupNotFoundHandler() {
	app.Router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Println("Not found", r.RequestURI)
		http.Error(w, fmt.Sprintf("Not found: %s", r.RequestURI), http.StatusNotFound)
	})
}

// Middleware to inject context into the request
func withContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		// Add a dummy APIGatewayV2HTTPRequest for testing
		if _, ok := ctx.Value(helpers.ApiGwV2ReqKey).(events.APIGatewayV2HTTPRequest); !ok {
			ctx = context.WithValue(ctx, helpers.ApiGwV2ReqKey, events.APIGatewayV2HTTPRequest{
				RequestContext: events.APIGatewayV2HTTPRequestContext{
					HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
						Method: r.Method,
						Path:   r.URL.Path,
					},
				},
			})
		}
		r = r.WithContext(ctx)
		next.ServeHTTP(w, r)
	})
}

func main() {
	flag.Parse()
	app := NewApp()
	app.SetupNotFoundHandler()

	// This is the package level instance of Db in handlers
	_ = transport.GetDB()

	app.SetupRoutes(Routes)

	adapter := gorillamux.NewV2(app.Router)

	lambda.Start(func(ctx context.Context, request events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		ctx = context.WithValue(ctx, helpers.ApiGwV2ReqKey, request)
		return adapter.ProxyWithContext(ctx, request)
	})
}
