package catalog

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/farmaplus/pos-api/internal/domain"
	"github.com/farmaplus/pos-api/internal/domain/entity"
	"github.com/farmaplus/pos-api/internal/domain/repository"
)

// maxSymbolRetries tope de reintentos al generar un símbolo con sufijo numérico.
const maxSymbolRetries = 50

var folder = cases.Fold()

// Normalize recorta espacios y aplica case folding Unicode. Es la forma
// canónica usada para comparar nombres de dimensiones.
func Normalize(s string) string {
	return folder.String(strings.TrimSpace(s))
}

// Reconciler resuelve una etiqueta libre contra una tabla de referencia:
// devuelve la fila activa existente, reactiva una inactiva con el mismo
// nombre, o crea una nueva. Nunca duplica una fila activa con el mismo nombre
// (sin distinguir mayúsculas). Muta la tabla dentro de la transacción del
// caller; jamás hace commit por su cuenta.
type Reconciler struct{}

// NewReconciler construye el reconciliador.
func NewReconciler() *Reconciler {
	return &Reconciler{}
}

// Resolve devuelve el id de la fila de dimensión para la etiqueta dada.
// Orden de búsqueda: activa con nombre exacto → inactiva con nombre exacto
// (se reactiva) → crear nueva. Para unidades de medida genera además un
// símbolo único (ver generateSymbol).
func (rc *Reconciler) Resolve(ctx context.Context, repo repository.DimensionRepository, kind entity.DimensionKind, label string) (string, error) {
	name := strings.TrimSpace(label)
	if name == "" {
		return "", domain.ErrInvalidInput
	}

	existing, err := repo.FindByName(ctx, kind, name)
	if err != nil {
		return "", err
	}
	if existing != nil {
		if !existing.Active {
			if err := repo.Reactivate(ctx, kind, existing.ID); err != nil {
				return "", err
			}
		}
		return existing.ID, nil
	}

	now := time.Now()
	d := &entity.Dimension{
		ID:        uuid.New().String(),
		Kind:      kind,
		Name:      name,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if kind == entity.DimensionUnitMeasure {
		symbol, err := rc.generateSymbol(ctx, repo, name)
		if err != nil {
			return "", err
		}
		d.Symbol = symbol
	}
	if err := repo.Create(ctx, d); err != nil {
		return "", err
	}
	return d.ID, nil
}

// generateSymbol deriva un símbolo único (<= 10 caracteres) para una unidad
// de medida. Si la etiqueta cabe y está libre se usa verbatim; si no, se
// trunca a 10 y ante colisión se prueba base[:8] + n hasta el tope de
// reintentos. Agotado el tope retorna ReconciliationError.
func (rc *Reconciler) generateSymbol(ctx context.Context, repo repository.DimensionRepository, label string) (string, error) {
	base := truncate(label, entity.MaxSymbolLength)
	inUse, err := repo.SymbolInUse(ctx, base)
	if err != nil {
		return "", err
	}
	if !inUse {
		return base, nil
	}

	prefix := truncate(base, entity.MaxSymbolLength-2)
	for n := 1; n <= maxSymbolRetries; n++ {
		candidate := prefix + strconv.Itoa(n)
		inUse, err := repo.SymbolInUse(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !inUse {
			return candidate, nil
		}
	}
	return "", &domain.ReconciliationError{Kind: string(entity.DimensionUnitMeasure), Label: label}
}

// truncate corta por runas, no por bytes (las etiquetas traen acentos).
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
