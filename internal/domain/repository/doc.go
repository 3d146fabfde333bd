// Package repository define las interfaces de repositorio de dominio.
//
// Estas interfaces representan contratos de negocio, independientes del
// almacenamiento subyacente (memoria, PostgreSQL, MongoDB, Redis).
//
// Las implementaciones concretas viven en internal/store/.
//
// Arquitectura:
//
//	┌─────────────────────────────────────────────────────┐
//	│           Services / Controllers                    │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	                        ▼
//	┌─────────────────────────────────────────────────────┐
//	│        domain/repository (interfaces)               │
//	│  ClientRepository, UserRepository,                  │
//	│  TemplateRepository, GrantRepository                │
//	└─────────────────────────────────────────────────────┘
//	                        │
//	      ┌─────────────┬───┴─────────┬─────────────┐
//	      ▼             ▼             ▼             ▼
//	┌──────────┐  ┌──────────┐  ┌──────────┐  ┌──────────┐
//	│  memory  │  │    pg    │  │  mongo   │  │  redis   │
//	└──────────┘  └──────────┘  └──────────┘  └──────────┘
//	                                         (solo grants)
//
// Convenciones:
//   - Context siempre es el primer parámetro
//   - Códigos y tokens se persisten solo como hash (SHA256 base64url)
//   - Errores de dominio están en errors.go
package repository
