package catalog

import auth "github.com/ocsalud/auth-go"

// Default returns the platform's role catalog. The permission sets
// mirror what each role may do against the clinical records API:
// administradores manage everything including users, admisionistas run
// the front desk, tecnicos capture exams and results, medicos handle
// the clinical side, and empresa accounts get read access scoped to
// their own company.
func Default() *Catalog {
	c, err := New(
		Entry{
			Role:        auth.RoleAdministrador,
			DisplayName: "Administrador",
			Permissions: []string{
				"usuarios.crear", "usuarios.ver", "usuarios.editar", "usuarios.eliminar",
				"roles.ver",
				"pacientes.crear", "pacientes.ver", "pacientes.editar", "pacientes.eliminar",
				"empresas.crear", "empresas.ver", "empresas.editar", "empresas.eliminar",
				"examenes.crear", "examenes.ver", "examenes.editar", "examenes.eliminar",
				"resultados.crear", "resultados.ver", "resultados.editar", "resultados.eliminar",
				"citas.crear", "citas.ver", "citas.editar", "citas.eliminar",
				"interconsultas.crear", "interconsultas.ver", "interconsultas.editar", "interconsultas.eliminar",
				"reportes.ver",
			},
		},
		Entry{
			Role:        auth.RoleAdmisionista,
			DisplayName: "Admisionista",
			Permissions: []string{
				"pacientes.crear", "pacientes.ver", "pacientes.editar",
				"empresas.crear", "empresas.ver", "empresas.editar",
				"citas.crear", "citas.ver", "citas.editar",
				"examenes.ver",
				"resultados.ver",
				"interconsultas.ver",
			},
		},
		Entry{
			Role:        auth.RoleTecnico,
			DisplayName: "Técnico",
			Permissions: []string{
				"pacientes.ver",
				"examenes.crear", "examenes.ver", "examenes.editar",
				"resultados.crear", "resultados.ver", "resultados.editar",
				"citas.ver",
			},
		},
		Entry{
			Role:        auth.RoleEmpresa,
			DisplayName: "Empresa",
			Permissions: []string{
				"pacientes.ver",
				"resultados.ver",
				"citas.ver",
				"reportes.ver",
			},
		},
		Entry{
			Role:        auth.RoleMedico,
			DisplayName: "Médico",
			Permissions: []string{
				"pacientes.ver",
				"examenes.ver",
				"resultados.crear", "resultados.ver", "resultados.editar",
				"interconsultas.crear", "interconsultas.ver", "interconsultas.editar",
				"citas.ver",
			},
		},
	)
	if err != nil {
		// The default entries are constants; failing to build them is a
		// programming error.
		panic(err)
	}
	return c
}
