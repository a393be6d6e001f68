package service

import (
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	ledgerv1 "github.com/louisbranch/waybill/api/ledger/v1"
	"github.com/louisbranch/waybill/internal/services/mcp/domain"
)

type registrationTarget interface {
	AddTool(*mcp.Tool, any) error
	AddResourceTemplate(*mcp.ResourceTemplate, mcp.ResourceHandler)
}

type serverRegistrationAdapter struct {
	server *mcp.Server
}

func (r serverRegistrationAdapter) AddTool(tool *mcp.Tool, handler any) error {
	return addTool(r.server, tool, handler)
}

func (r serverRegistrationAdapter) AddResourceTemplate(template *mcp.ResourceTemplate, handler mcp.ResourceHandler) {
	r.server.AddResourceTemplate(template, handler)
}

type toolRegistrar struct {
	matches func(any) bool
	add     func(*mcp.Server, *mcp.Tool, any)
}

func newToolRegistrar[I any, O any]() toolRegistrar {
	return toolRegistrar{
		matches: func(handler any) bool {
			_, ok := handler.(mcp.ToolHandlerFor[I, O])
			return ok
		},
		add: func(server *mcp.Server, tool *mcp.Tool, handler any) {
			mcp.AddTool(server, tool, handler.(mcp.ToolHandlerFor[I, O]))
		},
	}
}

var toolRegistrars = []toolRegistrar{
	newToolRegistrar[domain.ProductRegisterInput, domain.ProductRegisterResult](),
	newToolRegistrar[domain.StatusUpdateInput, domain.StatusUpdateResult](),
	newToolRegistrar[domain.CustodyTransferInput, domain.CustodyTransferResult](),
	newToolRegistrar[domain.ProductGetInput, domain.ProductGetResult](),
	newToolRegistrar[domain.ProductTotalInput, domain.ProductTotalResult](),
	newToolRegistrar[domain.EventRecordInput, domain.EventRecordResult](),
	newToolRegistrar[domain.EventGetInput, domain.EventGetResult](),
	newToolRegistrar[domain.EventCountInput, domain.EventCountResult](),
	newToolRegistrar[domain.EventListInput, domain.EventListResult](),
	newToolRegistrar[domain.HandlerGrantInput, domain.HandlerGrantResult](),
	newToolRegistrar[domain.IntegrityVerifyInput, domain.IntegrityVerifyResult](),
}

func addTool(server *mcp.Server, tool *mcp.Tool, handler any) error {
	for _, registrar := range toolRegistrars {
		if registrar.matches(handler) {
			registrar.add(server, tool, handler)
			return nil
		}
	}
	toolName := "<nil>"
	if tool != nil {
		toolName = tool.Name
	}
	return fmt.Errorf("mcp registration adapter does not support handler type %T for tool %q", handler, toolName)
}

func registerLedgerTools(registrar registrationTarget, client ledgerv1.LedgerServiceClient, notify domain.ResourceUpdateNotifier) error {
	registrations := []struct {
		tool    *mcp.Tool
		handler any
	}{
		{tool: domain.ProductRegisterTool(), handler: domain.ProductRegisterHandler(client, notify)},
		{tool: domain.StatusUpdateTool(), handler: domain.StatusUpdateHandler(client, notify)},
		{tool: domain.CustodyTransferTool(), handler: domain.CustodyTransferHandler(client, notify)},
		{tool: domain.EventRecordTool(), handler: domain.EventRecordHandler(client, notify)},
		{tool: domain.HandlerAuthorizeTool(), handler: domain.HandlerAuthorizeHandler(client)},
		{tool: domain.HandlerRevokeTool(), handler: domain.HandlerRevokeHandler(client)},
		{tool: domain.ProductGetTool(), handler: domain.ProductGetHandler(client)},
		{tool: domain.ProductTotalTool(), handler: domain.ProductTotalHandler(client)},
		{tool: domain.EventGetTool(), handler: domain.EventGetHandler(client)},
		{tool: domain.EventCountTool(), handler: domain.EventCountHandler(client)},
		{tool: domain.EventListTool(), handler: domain.EventListHandler(client)},
		{tool: domain.HandlerIsAuthorizedTool(), handler: domain.HandlerIsAuthorizedHandler(client)},
		{tool: domain.IntegrityVerifyTool(), handler: domain.IntegrityVerifyHandler(client)},
	}
	for _, registration := range registrations {
		if err := registrar.AddTool(registration.tool, registration.handler); err != nil {
			return err
		}
	}
	return nil
}

func registerLedgerResources(registrar registrationTarget, client ledgerv1.LedgerServiceClient) {
	handler := domain.ProductResourceHandler(client)
	registrar.AddResourceTemplate(domain.ProductResourceTemplate(), handler)
	registrar.AddResourceTemplate(domain.ProductEventsResourceTemplate(), handler)
}
