package httperror

const (
	Code400_0 = "400_0" // Invalid request body.
	Code400_1 = "400_1" // Invalid tenant identifier.
	Code400_2 = "400_2" // Invalid status transition.
	Code401_0 = "401_0" // Not authorized.
	Code403_0 = "403_0" // Tenant is not active.
	Code403_1 = "403_1" // Tenant mismatch between header and token.
	Code403_2 = "403_2" // Account disabled.
	Code429_0 = "429_0" // Rate limit exceeded.
	Code500_0 = "500_0" // An internal error occurred while processing this request.
	Code500_1 = "500_1" // Cannot retrieve the tenant from the context.
	Code502_0 = "502_0" // The upstream service is unavailable.
	Code502_1 = "502_1" // The identity provider issued an unusable token.
	Code503_0 = "503_0" // Tenant schema is not ready.
)
