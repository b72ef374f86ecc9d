package domain

// Actor roles recognized by the workflow engine. Role membership is owned
// by the identity module; the engine only checks names it is handed.
const (
	RoleAdmin        = "Admin"
	RoleDataEncoder  = "DataEncoder"
	RoleCaseExecutor = "CaseExecutor"
	RoleAssessor     = "Assessor"
	RoleCustomer     = "Customer"
)
