package registry

import (
	"github.com/dukex/leadflow/pkg/nodes/email"
	"github.com/dukex/leadflow/pkg/nodes/handoff"
	"github.com/dukex/leadflow/pkg/nodes/sms"
	"github.com/dukex/leadflow/pkg/nodes/trigger"
	"github.com/dukex/leadflow/pkg/nodes/wait"
	"github.com/dukex/leadflow/pkg/protocol"
)

// RegisterDefaultNodes registers all built-in node factories with the registry.
func (r *Registry) RegisterDefaultNodes(deps protocol.Dependencies) {
	r.RegisterNode(trigger.NewManualTriggerNodeFactory())
	r.RegisterNode(trigger.NewVoicemailTriggerNodeFactory())
	r.RegisterNode(email.NewSendEmailNodeFactory(deps.Email))
	r.RegisterNode(sms.NewSendSMSNodeFactory(deps.SMS))
	r.RegisterNode(wait.NewWaitNodeFactory())
	r.RegisterNode(handoff.NewAgentHandoffNodeFactory(deps.Agent))
}
