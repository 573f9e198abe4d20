package model

import "slices"

// Actor identifies who is invoking a core operation. It is built from the
// authenticated session by the caller and passed explicitly into every call.
type Actor struct {
	Name    string
	Role    string
	Regions []string
}

// CoversRegion reports whether the actor may act on behalf of region.
// Managers cover every region; supervisors only their own; other roles none.
func (a Actor) CoversRegion(region string) bool {
	if a.Role == RoleManager {
		return true
	}
	return IsSupervisor(a.Role) && slices.Contains(a.Regions, region)
}

// Operation names a core operation for authorization.
type Operation string

// Core operations.
const (
	OpListInventory   Operation = "list_inventory"
	OpCreateItem      Operation = "create_item"
	OpUpdateItem      Operation = "update_item"
	OpAdjustStock     Operation = "adjust_stock"
	OpStockTake       Operation = "stock_take"
	OpTransferStock   Operation = "transfer_stock"
	OpLoan            Operation = "loan"
	OpReceiveExternal Operation = "receive_external"
	OpListStockLogs   Operation = "list_stock_logs"
	OpCreateRequest   Operation = "create_request"
	OpEditRequest     Operation = "edit_request"
	OpDeleteRequest   Operation = "delete_request"
	OpDecideRequest   Operation = "decide_request"
	OpIssueRequest    Operation = "issue_request"
	OpReceiveRequest  Operation = "receive_request"
	OpListRequests    Operation = "list_requests"
	OpUpdateLocal     Operation = "update_local"
	OpListLocal       Operation = "list_local"
	OpManageUsers     Operation = "manage_users"
	OpListActivity    Operation = "list_activity"
	OpRunBatch        Operation = "run_batch"
)

var (
	everyone    = []string{RoleManager, RoleStorekeeper, RoleSupervisor, RoleNightSupervisor}
	stockStaff  = []string{RoleManager, RoleStorekeeper}
	supervisors = []string{RoleManager, RoleSupervisor, RoleNightSupervisor}
	managers    = []string{RoleManager}
)

// capabilities lists the roles permitted to invoke each operation.
var capabilities = map[Operation][]string{
	OpListInventory:   everyone,
	OpCreateItem:      stockStaff,
	OpUpdateItem:      stockStaff,
	OpAdjustStock:     stockStaff,
	OpStockTake:       stockStaff,
	OpTransferStock:   stockStaff,
	OpLoan:            stockStaff,
	OpReceiveExternal: stockStaff,
	OpListStockLogs:   stockStaff,
	OpCreateRequest:   supervisors,
	OpEditRequest:     supervisors,
	OpDeleteRequest:   supervisors,
	OpDecideRequest:   managers,
	OpIssueRequest:    stockStaff,
	OpReceiveRequest:  supervisors,
	OpListRequests:    everyone,
	OpUpdateLocal:     supervisors,
	OpListLocal:       everyone,
	OpManageUsers:     managers,
	OpListActivity:    managers,
	OpRunBatch:        managers,
}

// Permits reports whether role may invoke op. Unknown operations and roles
// fail closed.
func Permits(role string, op Operation) bool {
	return slices.Contains(capabilities[op], role)
}
