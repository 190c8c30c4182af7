package app

import (
	"github.com/vk/promptworks/internal/analysis"
	"github.com/vk/promptworks/modules/perfsummary"
)

// coreModules is the definitive list of analysis modules compiled into the
// binary.
var coreModules = []analysis.Module{
	&perfsummary.Module{},
}
