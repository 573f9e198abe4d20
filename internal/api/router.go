package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/zaloga/internal/inventory"
	"github.com/erazemk/zaloga/internal/model"
)

// NewRouter creates the API router with all endpoints registered. Role
// checks for inventory operations happen in the service; only user
// management is gated here.
func NewRouter(db *sql.DB, svc *inventory.Service, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	inventoryHandler := &InventoryHandler{Svc: svc}
	itemsHandler := &ItemsHandler{Svc: svc}
	transfersHandler := &TransfersHandler{Svc: svc}
	requestsHandler := &RequestsHandler{Svc: svc}
	localHandler := &LocalHandler{Svc: svc}

	authMW := AuthMiddleware(jwtSecret, db)
	manageUsers := RequirePermission(model.OpManageUsers)
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authed(authHandler.ChangePassword))
	mux.Handle("POST /api/auth/logout", authed(authHandler.Logout))

	// Users (manager only).
	mux.Handle("GET /api/users", authMW(manageUsers(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(manageUsers(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(manageUsers(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(manageUsers(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("PUT /api/users/{id}/password", authMW(manageUsers(http.HandlerFunc(usersHandler.ResetPassword))))
	mux.Handle("DELETE /api/users/{id}", authMW(manageUsers(http.HandlerFunc(usersHandler.Delete))))

	// Stock ledger.
	mux.Handle("GET /api/inventory", authed(inventoryHandler.List))
	mux.Handle("GET /api/locations", authed(inventoryHandler.Locations))
	mux.Handle("POST /api/inventory/adjust", authed(inventoryHandler.Adjust))
	mux.Handle("POST /api/inventory/count", authed(inventoryHandler.Count))
	mux.Handle("POST /api/inventory/stocktake", authed(inventoryHandler.StockTake))
	mux.Handle("GET /api/stock-logs", authed(inventoryHandler.Logs))
	mux.Handle("GET /api/ledger", authed(inventoryHandler.Ledger))

	// Item catalogue.
	mux.Handle("POST /api/items", authed(itemsHandler.Create))
	mux.Handle("PUT /api/locations/{location}/items/{name}", authed(itemsHandler.Update))

	// Transfers, loans and external receipts.
	mux.Handle("POST /api/transfers", authed(transfersHandler.Create))
	mux.Handle("POST /api/loans", authed(transfersHandler.Loan))
	mux.Handle("POST /api/receipts", authed(transfersHandler.Receive))

	// Requests.
	mux.Handle("GET /api/requests", authed(requestsHandler.List))
	mux.Handle("POST /api/requests", authed(requestsHandler.Create))
	mux.Handle("POST /api/requests/bulk", authed(requestsHandler.BulkCreate))
	mux.Handle("POST /api/requests/bulk/approve", authed(requestsHandler.BulkApprove))
	mux.Handle("POST /api/requests/bulk/reject", authed(requestsHandler.BulkReject))
	mux.Handle("POST /api/requests/bulk/issue", authed(requestsHandler.BulkIssue))
	mux.Handle("POST /api/requests/bulk/receive", authed(requestsHandler.BulkReceive))
	mux.Handle("GET /api/requests/{id}", authed(requestsHandler.Get))
	mux.Handle("PUT /api/requests/{id}", authed(requestsHandler.Update))
	mux.Handle("DELETE /api/requests/{id}", authed(requestsHandler.Delete))
	mux.Handle("PUT /api/requests/{id}/status", authed(requestsHandler.SetStatus))
	mux.Handle("POST /api/requests/{id}/approve", authed(requestsHandler.Approve))
	mux.Handle("POST /api/requests/{id}/reject", authed(requestsHandler.Reject))
	mux.Handle("POST /api/requests/{id}/issue", authed(requestsHandler.Issue))
	mux.Handle("POST /api/requests/{id}/receive", authed(requestsHandler.Receive))

	// Local inventory and activity.
	mux.Handle("GET /api/local", authed(localHandler.List))
	mux.Handle("POST /api/local/credit", authed(localHandler.Credit))
	mux.Handle("PUT /api/local/{region}", authed(localHandler.Count))
	mux.Handle("GET /api/activity", authed(localHandler.Activity))

	return mux
}
