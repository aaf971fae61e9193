package policy

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockagentruntime/types"

	"github.com/vaahana-ai/vaahana/pkg/logx"
)

// Agent invokes a Bedrock agent and collects its streamed completion.
// It sits beside the state machine as an alternative conversation
// policy and is not on the turn pipeline.
type Agent struct {
	client  *bedrockagentruntime.Client
	agentID string
	aliasID string
}

// NewAgent builds the Bedrock runtime client using the default AWS
// credential chain.
func NewAgent(ctx context.Context, region, agentID, aliasID string) (*Agent, error) {
	if agentID == "" || aliasID == "" {
		return nil, NewMissingAgentConfigError()
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		logx.WithField("region", region).WithError(err).Error("Failed to load AWS configuration")
		return nil, NewClientInitError(err)
	}

	logx.WithFields(logx.Fields{
		"region":   region,
		"agent_id": agentID,
		"alias_id": aliasID,
	}).Debug("Bedrock agent client created")

	return &Agent{
		client:  bedrockagentruntime.NewFromConfig(cfg),
		agentID: agentID,
		aliasID: aliasID,
	}, nil
}

// Invoke sends one user utterance to the agent and returns the full
// completion text once the response stream ends.
func (a *Agent) Invoke(ctx context.Context, sessionID, text string) (string, error) {
	logx.WithFields(logx.Fields{
		"session_id": sessionID,
		"agent_id":   a.agentID,
	}).Debug("Invoking Bedrock agent")

	out, err := a.client.InvokeAgent(ctx, &bedrockagentruntime.InvokeAgentInput{
		AgentId:      aws.String(a.agentID),
		AgentAliasId: aws.String(a.aliasID),
		SessionId:    aws.String(sessionID),
		InputText:    aws.String(text),
	})
	if err != nil {
		logx.WithField("session_id", sessionID).WithError(err).Error("Bedrock agent invocation failed")
		return "", NewInvokeError(sessionID, err)
	}

	stream := out.GetStream()
	defer stream.Close()

	var completion strings.Builder
	for event := range stream.Events() {
		if chunk, ok := event.(*types.ResponseStreamMemberChunk); ok && chunk.Value.Bytes != nil {
			completion.Write(chunk.Value.Bytes)
		}
	}
	if err := stream.Err(); err != nil {
		logx.WithField("session_id", sessionID).WithError(err).Error("Bedrock agent stream failed")
		return "", NewStreamError(sessionID, err)
	}

	logx.WithFields(logx.Fields{
		"session_id":        sessionID,
		"completion_length": completion.Len(),
	}).Debug("Bedrock agent completion received")

	return completion.String(), nil
}
