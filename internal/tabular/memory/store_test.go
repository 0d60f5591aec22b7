package memory

import (
	"testing"

	"github.com/xelth-com/saisun/internal/tabular"
	"github.com/xelth-com/saisun/internal/tabular/tabulartest"
)

func TestStoreContract(t *testing.T) {
	tabulartest.Run(t, func(t *testing.T) tabular.Store { return NewStore() })
}
