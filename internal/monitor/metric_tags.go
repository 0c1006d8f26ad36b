package monitor

type MetricTag string

const (
	SuccessfulQueryDurationTag MetricTag = "successful_queries_duration"
	FailureQueryDurationTag    MetricTag = "failure_queries_duration"
	HttpRequestDurationTag     MetricTag = "requests_duration_seconds"
	// Operations:
	InventoryMovementsCounterTag MetricTag = "inventory_movements_counter"
	// Tenant authority API requests (issued by the gateway and the auth BFF):
	AuthorityAPIRequestDurationTag MetricTag = "authority_api_request_duration_seconds"
	AuthorityAPIRequestsTotalTag   MetricTag = "authority_api_requests_total"
	// Tenant lifecycle:
	TenantLifecycleEventsCounterTag MetricTag = "tenant_lifecycle_events_counter"
	// Gateway:
	RateLimitedRequestsCounterTag MetricTag = "rate_limited_requests_counter"
)

// Tags for the function metrics registered per DB connection pool. These are not part of ListAll because they are
// registered dynamically, one set per pool, with the pool name as a constant label.
const (
	DBMaxOpenConnectionsTag       MetricTag = "max_open_connections"
	DBInUseConnectionsTag         MetricTag = "in_use_connections"
	DBIdleConnectionsTag          MetricTag = "idle_connections"
	DBWaitCountTotalTag           MetricTag = "wait_count_total"
	DBWaitDurationSecondsTotalTag MetricTag = "wait_duration_seconds_total"
	DBMaxIdleClosedTotalTag       MetricTag = "max_idle_closed_total"
	DBMaxIdleTimeClosedTotalTag   MetricTag = "max_idle_time_closed_total"
	DBMaxLifetimeClosedTotalTag   MetricTag = "max_lifetime_closed_total"
)

func (m MetricTag) ListAll() []MetricTag {
	return []MetricTag{
		SuccessfulQueryDurationTag,
		FailureQueryDurationTag,
		HttpRequestDurationTag,
		InventoryMovementsCounterTag,
		AuthorityAPIRequestDurationTag,
		AuthorityAPIRequestsTotalTag,
		TenantLifecycleEventsCounterTag,
		RateLimitedRequestsCounterTag,
	}
}
