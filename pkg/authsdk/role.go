package authsdk

// Role is the front-end's closed authorization category.
type Role string

const (
	RoleComprador  Role = "comprador"
	RoleVendedor   Role = "vendedor"
	RoleEntregador Role = "entregador"
	RoleAdmin      Role = "admin"
)

// roleTable maps backend user types onto front-end roles. The backend calls
// buyers "usuario" or "user".
var roleTable = map[string]Role{
	"usuario":    RoleComprador,
	"user":       RoleComprador,
	"comprador":  RoleComprador,
	"vendedor":   RoleVendedor,
	"entregador": RoleEntregador,
	"admin":      RoleAdmin,
}

var dashboardPaths = map[Role]string{
	RoleComprador:  "/comprador/dashboard",
	RoleVendedor:   "/vendedor/dashboard",
	RoleEntregador: "/entregador/dashboard",
	RoleAdmin:      "/admin/dashboard",
}

var roleLabels = map[Role]string{
	RoleComprador:  "Comprador",
	RoleVendedor:   "Vendedor",
	RoleEntregador: "Entregador",
	RoleAdmin:      "Administrador",
}

// NormalizeRole maps a raw backend user type to a Role. Unknown and empty
// input becomes RoleComprador.
//
// NOTE: unknown types are routed as buyers instead of rejecting the login.
// Revisit when the backend adds a role.
func NormalizeRole(raw string) Role {
	if r, ok := roleTable[raw]; ok {
		return r
	}
	return RoleComprador
}

// Roles returns the closed role set in display order.
func Roles() []Role {
	return []Role{RoleComprador, RoleVendedor, RoleEntregador, RoleAdmin}
}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	_, ok := dashboardPaths[r]
	return ok
}

// Label is the human readable role name shown in menus.
func (r Role) Label() string {
	if l, ok := roleLabels[r]; ok {
		return l
	}
	return "Usuário"
}

func (r Role) String() string { return string(r) }

// DashboardPath returns the landing route of a role.
func DashboardPath(r Role) (string, bool) {
	p, ok := dashboardPaths[r]
	return p, ok
}
