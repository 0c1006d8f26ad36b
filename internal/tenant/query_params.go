package tenant

// FilterKey is the set of columns tenants can be filtered by.
type FilterKey string

const (
	FilterKeyID             FilterKey = "id"
	FilterKeyStatus         FilterKey = "status"
	FilterKeyNameOrID       FilterKey = "name_or_id"
	FilterKeyIncludeDeleted FilterKey = "include_deleted"
)

type QueryParams struct {
	Filters map[FilterKey]interface{}
}
