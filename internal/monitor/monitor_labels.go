package monitor

type CommonLabels struct {
	TenantName string
}

type HttpRequestLabels struct {
	Status string
	Route  string
	Method string
}

type DBQueryLabels struct {
	QueryType string
}

type MovementLabels struct {
	MovementType string
	CommonLabels
}

func (m MovementLabels) ToMap() map[string]string {
	return map[string]string{
		"movement_type": m.MovementType,
		"tenant_name":   m.TenantName,
	}
}

type AuthorityLabels struct {
	Method     string
	Endpoint   string
	Status     string
	StatusCode string
}

func (a AuthorityLabels) ToMap() map[string]string {
	return map[string]string{
		"method":      a.Method,
		"endpoint":    a.Endpoint,
		"status":      a.Status,
		"status_code": a.StatusCode,
	}
}

var AuthorityLabelNames = []string{"method", "endpoint", "status", "status_code"}
