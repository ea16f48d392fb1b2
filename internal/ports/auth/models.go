package auth

// Claims representa la información extraída del token.
// Role viene del token cuando el proveedor lo incluye (app_metadata / header dev);
// vacío => se resuelve contra el perfil en usuarios.
type Claims struct {
	UserID string
	Email  string
	Role   string
}
