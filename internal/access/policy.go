package access

// Role identifies a user's function within the hospital. A user holds
// exactly one active role at a time; role changes go through the user
// service, never by direct mutation.
type Role string

const (
	RolePatient        Role = "patient"
	RoleDoctor         Role = "doctor"
	RoleNurse          Role = "nurse"
	RoleFrontDesk      Role = "front-desk"
	RoleAdmin          Role = "admin"
	RoleSuperAdmin     Role = "super-admin"
	RoleInsurance      Role = "insurance"
	RolePharmacy       Role = "pharmacy"
	RoleDepartmentHead Role = "department-head"
	RoleSSD            Role = "ssd"
)

// Roles lists every known role. Used by validation and by tests that
// enumerate the policy table.
func Roles() []Role {
	return []Role{
		RolePatient, RoleDoctor, RoleNurse, RoleFrontDesk, RoleAdmin,
		RoleSuperAdmin, RoleInsurance, RolePharmacy, RoleDepartmentHead, RoleSSD,
	}
}

// Valid reports whether r is one of the enumerated roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleNurse, RoleFrontDesk, RoleAdmin,
		RoleSuperAdmin, RoleInsurance, RolePharmacy, RoleDepartmentHead, RoleSSD:
		return true
	}
	return false
}

// ResourceType names a protected resource category.
type ResourceType string

const (
	ResourceMedicalRecords ResourceType = "medical-records"
	ResourceAppointments   ResourceType = "appointments"
	ResourcePatients       ResourceType = "patients"
	ResourceUsers          ResourceType = "users"
	ResourcePrescriptions  ResourceType = "prescriptions"
	ResourceVitals         ResourceType = "vitals"
	ResourceQueue          ResourceType = "queue"
	ResourceAuditLogs      ResourceType = "audit-logs"
	ResourceBilling        ResourceType = "billing"
)

// ResourceTypes lists every protected resource category.
func ResourceTypes() []ResourceType {
	return []ResourceType{
		ResourceMedicalRecords, ResourceAppointments, ResourcePatients,
		ResourceUsers, ResourcePrescriptions, ResourceVitals,
		ResourceQueue, ResourceAuditLogs, ResourceBilling,
	}
}

// Action is one of the four operations a role may be granted on a resource.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Actions lists the four CRUD actions.
func Actions() []Action {
	return []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete}
}

// Policy maps a role to the resource types it may touch and the actions
// allowed on each. Any (role, resource) pair absent from the table grants
// nothing: lookups fail closed.
type Policy map[Role]map[ResourceType][]Action

// DefaultPolicy returns the static permission matrix.
//
// Note the admin/prescriptions gap: doctor holds prescriptions while
// admin does not, even though admin is otherwise broadly privileged.
// This reproduces the production table as-is pending product-owner
// confirmation; see DESIGN.md before "fixing" it.
func DefaultPolicy() Policy {
	all := []Action{ActionRead, ActionCreate, ActionUpdate, ActionDelete}

	return Policy{
		RolePatient: {
			ResourceAppointments:   {ActionRead, ActionCreate},
			ResourceMedicalRecords: {ActionRead},
			ResourceVitals:         {ActionRead},
		},
		RoleDoctor: {
			ResourcePatients:       {ActionRead, ActionUpdate},
			ResourceMedicalRecords: {ActionRead, ActionCreate, ActionUpdate},
			ResourceAppointments:   {ActionRead, ActionCreate, ActionUpdate},
			ResourcePrescriptions:  {ActionRead, ActionCreate, ActionUpdate},
			ResourceVitals:         {ActionRead, ActionCreate, ActionUpdate},
			ResourceQueue:          {ActionRead, ActionUpdate},
		},
		RoleNurse: {
			ResourcePatients:       {ActionRead},
			ResourceMedicalRecords: {ActionRead},
			ResourceAppointments:   {ActionRead},
			ResourceVitals:         {ActionRead, ActionCreate, ActionUpdate},
			ResourceQueue:          {ActionRead, ActionUpdate},
		},
		RoleFrontDesk: {
			ResourcePatients:     {ActionRead, ActionCreate, ActionUpdate},
			ResourceAppointments: all,
			ResourceQueue:        {ActionRead, ActionCreate, ActionUpdate},
		},
		RoleAdmin: {
			ResourceUsers:          all,
			ResourcePatients:       all,
			ResourceAppointments:   all,
			ResourceMedicalRecords: {ActionRead},
			ResourceQueue:          all,
			ResourceBilling:        {ActionRead, ActionCreate, ActionUpdate},
			ResourceAuditLogs:      {ActionRead},
		},
		RoleSuperAdmin: {
			ResourceMedicalRecords: all,
			ResourceAppointments:   all,
			ResourcePatients:       all,
			ResourceUsers:          all,
			ResourcePrescriptions:  all,
			ResourceVitals:         all,
			ResourceQueue:          all,
			ResourceAuditLogs:      all,
			ResourceBilling:        all,
		},
		RoleInsurance: {
			ResourcePatients:       {ActionRead},
			ResourceMedicalRecords: {ActionRead},
			ResourceBilling:        {ActionRead},
		},
		RolePharmacy: {
			ResourcePatients:      {ActionRead},
			ResourcePrescriptions: {ActionRead, ActionUpdate},
		},
		RoleDepartmentHead: {
			ResourcePatients:       {ActionRead},
			ResourceAppointments:   {ActionRead},
			ResourceMedicalRecords: {ActionRead},
			ResourceVitals:         {ActionRead},
			ResourceQueue:          {ActionRead},
			ResourceUsers:          {ActionRead},
			ResourceAuditLogs:      {ActionRead},
		},
		RoleSSD: {
			ResourceQueue:        all,
			ResourceAppointments: {ActionRead},
		},
	}
}

// CanChangeRole implements the super-admin mutation rule, which is
// evaluated before the generic policy on any role change: an actor that
// does not hold super-admin may neither grant super-admin nor modify a
// user who currently holds it.
func CanChangeRole(actor, current, requested Role) bool {
	if current == RoleSuperAdmin || requested == RoleSuperAdmin {
		return actor == RoleSuperAdmin
	}
	return true
}
