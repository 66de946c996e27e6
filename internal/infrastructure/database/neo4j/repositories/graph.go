package repositories

import (
	"context"

	driver "github.com/turtacn/patent-normalizer/internal/infrastructure/database/neo4j"
	"github.com/turtacn/patent-normalizer/internal/infrastructure/monitoring/logging"
	dto "github.com/turtacn/patent-normalizer/pkg/types/patent"
)

// Graph groups the repositories that together project a document into the
// graph.
type Graph struct {
	Citations       *CitationRepository
	Family          *FamilyRepository
	Classifications *ClassificationGraphRepository
}

func NewGraph(d driver.DriverInterface, log logging.Logger) *Graph {
	log = logging.OrDefault(log).Named("graph")
	return &Graph{
		Citations:       NewCitationRepository(d, log),
		Family:          NewFamilyRepository(d, log),
		Classifications: NewClassificationGraphRepository(d, log),
	}
}

// Write projects doc: its node, citations, family links and
// classifications.  Each step is idempotent so a failed write can be
// retried as a whole.
func (g *Graph) Write(ctx context.Context, doc *dto.Document) error {
	steps := []func(context.Context, *dto.Document) error{
		g.Citations.UpsertPatentNode,
		g.Citations.ReplaceCitations,
		g.Family.LinkFamily,
		g.Classifications.LinkClassifications,
	}
	for _, step := range steps {
		if err := step(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}

//Personal.AI order the ending
