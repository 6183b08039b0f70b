package app

import (
	"github.com/vk/keywordgo/internal/registry"
	"github.com/vk/keywordgo/modules/builtin"
	"github.com/vk/keywordgo/modules/env"
)

// coreModules is the definitive list of keyword libraries compiled into
// the keywordgo binary.
var coreModules = []registry.Module{
	&builtin.Module{},
	&env.Module{},
}
