package domain

// Action names accepted by the dispatcher. The set is fixed; anything else is
// rejected before any rendering or execution happens.
const (
	ActionTestInstall    = "test_install"
	ActionSetupContainer = "setup_container"
	ActionSetupAccount   = "setup_account"
	ActionGetAccountInfo = "get_account_info"
	ActionCreateWorker   = "create_worker"
	ActionListWorkers    = "list_workers"
	ActionGetWorker      = "get_worker"
	ActionHasWorker      = "has_worker"
	ActionUpdateWorker   = "update_worker"
	ActionDeleteWorker   = "delete_worker"
)

// Actions lists the supported action names in a stable order.
func Actions() []string {
	return []string{
		ActionTestInstall,
		ActionSetupContainer,
		ActionSetupAccount,
		ActionGetAccountInfo,
		ActionCreateWorker,
		ActionListWorkers,
		ActionGetWorker,
		ActionHasWorker,
		ActionUpdateWorker,
		ActionDeleteWorker,
	}
}

// ActionRequest is the caller-owned input to the dispatcher: an action name
// plus named parameters. The dispatcher treats it as read-only.
type ActionRequest struct {
	Action string         `json:"action"`
	Params map[string]any `json:"params"`
}

// ActionResponse is constructed fresh for every call. Exactly one of Result
// and Error is set.
type ActionResponse struct {
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   *Error `json:"error,omitempty"`
}

// OK wraps a success payload.
func OK(result any) ActionResponse {
	return ActionResponse{Success: true, Result: result}
}

// Fail wraps any error into the structured error response.
func Fail(err error) ActionResponse {
	return ActionResponse{Success: false, Error: AsError(err)}
}
