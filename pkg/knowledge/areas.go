// Package knowledge tracks a learner's per-area mastery of school
// mathematics and updates it from tutoring interactions.
package knowledge

import "strings"

// AreaInfo describes one entry of the static area catalog.
type AreaInfo struct {
	ID                string
	DisplayName       string
	DefaultDifficulty float64
	DefaultWeight     float64
	Keywords          []string
}

// Catalog is the fixed list of knowledge areas, ordered roughly by
// curriculum progression. Keywords carry both English and Spanish
// phrases since learners write in either.
var Catalog = []AreaInfo{
	{
		ID: "basic_arithmetic", DisplayName: "Basic Arithmetic",
		DefaultDifficulty: 2, DefaultWeight: 6,
		Keywords: []string{"addition", "subtraction", "multiplication", "division", "fractions", "decimals", "percentages", "suma", "resta", "multiplicacion", "division", "fracciones", "decimales", "porcentajes"},
	},
	{
		ID: "elementary_algebra", DisplayName: "Elementary Algebra",
		DefaultDifficulty: 4, DefaultWeight: 8,
		Keywords: []string{"variables", "algebraic expression", "factoring", "polynomial", "expresiones algebraicas", "factorizacion", "polinomios"},
	},
	{
		ID: "linear_equations", DisplayName: "Linear Equations",
		DefaultDifficulty: 4, DefaultWeight: 8,
		Keywords: []string{"linear equation", "solve for x", "isolate", "ecuacion lineal", "despeje", "resolucion ecuaciones"},
	},
	{
		ID: "equation_systems", DisplayName: "Systems of Equations",
		DefaultDifficulty: 5, DefaultWeight: 7,
		Keywords: []string{"system of equations", "substitution method", "elimination method", "sistema de ecuaciones", "metodo sustitucion", "metodo eliminacion"},
	},
	{
		ID: "quadratic_equations", DisplayName: "Quadratic Equations",
		DefaultDifficulty: 5, DefaultWeight: 8,
		Keywords: []string{"quadratic equation", "quadratic formula", "discriminant", "ecuacion cuadratica", "formula general", "discriminante", "factorizacion cuadratica"},
	},
	{
		ID: "plane_geometry", DisplayName: "Plane Geometry",
		DefaultDifficulty: 4, DefaultWeight: 8,
		Keywords: []string{"area", "perimeter", "triangle", "quadrilateral", "circle", "pythagorean", "pythagoras", "perimetro", "triangulos", "cuadrilateros", "circulo", "teorema pitagoras"},
	},
	{
		ID: "solid_geometry", DisplayName: "Solid Geometry",
		DefaultDifficulty: 5, DefaultWeight: 6,
		Keywords: []string{"volume", "surface area", "prism", "pyramid", "sphere", "volumen", "area superficie", "prismas", "piramides", "esferas"},
	},
	{
		ID: "analytic_geometry", DisplayName: "Analytic Geometry",
		DefaultDifficulty: 6, DefaultWeight: 7,
		Keywords: []string{"cartesian plane", "distance between points", "equation of a line", "conic", "plano cartesiano", "distancia puntos", "ecuacion recta", "conicas"},
	},
	{
		ID: "basic_functions", DisplayName: "Basic Functions",
		DefaultDifficulty: 5, DefaultWeight: 8,
		Keywords: []string{"function", "domain", "range", "graph of", "funcion", "dominio", "rango", "grafica funcion"},
	},
	{
		ID: "quadratic_functions", DisplayName: "Quadratic Functions",
		DefaultDifficulty: 5, DefaultWeight: 7,
		Keywords: []string{"parabola", "vertex", "quadratic function", "vertice", "funcion cuadratica"},
	},
	{
		ID: "exponential_functions", DisplayName: "Exponential Functions",
		DefaultDifficulty: 6, DefaultWeight: 6,
		Keywords: []string{"exponential function", "exponential growth", "funcion exponencial", "crecimiento exponencial"},
	},
	{
		ID: "logarithmic_functions", DisplayName: "Logarithmic Functions",
		DefaultDifficulty: 6, DefaultWeight: 6,
		Keywords: []string{"logarithm", "log properties", "logaritmo", "propiedades logaritmos"},
	},
	{
		ID: "basic_trigonometry", DisplayName: "Basic Trigonometry",
		DefaultDifficulty: 6, DefaultWeight: 7,
		Keywords: []string{"sine", "cosine", "tangent", "trigonometric ratio", "seno", "coseno", "tangente", "razones trigonometricas"},
	},
	{
		ID: "trigonometric_identities", DisplayName: "Trigonometric Identities",
		DefaultDifficulty: 7, DefaultWeight: 6,
		Keywords: []string{"trigonometric identity", "trigonometric equation", "identidad trigonometrica", "ecuaciones trigonometricas"},
	},
	{
		ID: "descriptive_statistics", DisplayName: "Descriptive Statistics",
		DefaultDifficulty: 4, DefaultWeight: 6,
		Keywords: []string{"mean", "median", "mode", "standard deviation", "media", "mediana", "moda", "desviacion estandar"},
	},
	{
		ID: "basic_probability", DisplayName: "Basic Probability",
		DefaultDifficulty: 5, DefaultWeight: 6,
		Keywords: []string{"probability", "event", "sample space", "probabilidad", "evento", "espacio muestral"},
	},
	{
		ID: "limits_continuity", DisplayName: "Limits and Continuity",
		DefaultDifficulty: 7, DefaultWeight: 5,
		Keywords: []string{"limit", "continuity", "limite", "continuidad"},
	},
	{
		ID: "basic_derivatives", DisplayName: "Basic Derivatives",
		DefaultDifficulty: 8, DefaultWeight: 5,
		Keywords: []string{"derivative", "chain rule", "differentiation", "derivada", "regla cadena", "derivacion"},
	},
	{
		ID: "set_theory", DisplayName: "Set Theory",
		DefaultDifficulty: 3, DefaultWeight: 5,
		Keywords: []string{"set", "union", "intersection", "complement", "conjunto", "interseccion", "complemento"},
	},
	{
		ID: "mathematical_logic", DisplayName: "Mathematical Logic",
		DefaultDifficulty: 4, DefaultWeight: 5,
		Keywords: []string{"proposition", "logical connective", "truth table", "proposicion", "conectivos logicos", "tablas verdad"},
	},
}

// IdentifyAreas returns the ids of every catalog area whose keywords
// occur as a substring of the query or answer text.
func IdentifyAreas(query, answer string) []string {
	text := strings.ToLower(query + " " + answer)

	var matched []string
	for _, area := range Catalog {
		for _, kw := range area.Keywords {
			if strings.Contains(text, kw) {
				matched = append(matched, area.ID)
				break
			}
		}
	}
	return matched
}

// AreaByID looks up a catalog entry.
func AreaByID(id string) (AreaInfo, bool) {
	for _, area := range Catalog {
		if area.ID == id {
			return area, true
		}
	}
	return AreaInfo{}, false
}
