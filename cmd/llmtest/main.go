package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/joho/godotenv"

	"github.com/wolfman30/outreach-ai-platform/internal/calllogs"
	"github.com/wolfman30/outreach-ai-platform/internal/leads"
	"github.com/wolfman30/outreach-ai-platform/internal/llm"
	"github.com/wolfman30/outreach-ai-platform/internal/voice"
)

// llmtest plays a short scripted conversation against the model-backed voice
// agent so a new LLM_API_KEY (or LLM_PROVIDER=bedrock with BEDROCK_MODEL_ID)
// can be checked without placing a call.
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, model, err := newClient(ctx)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	agent := voice.NewModelAgent(client, nil, nil)

	lead := &leads.Lead{Name: "Summit Roofing", Industry: "Roofing", City: "Denver", State: "CO"}
	history := []calllogs.Turn{{
		Speaker: calllogs.SpeakerAssistant,
		Text:    "Hi, is this Summit Roofing? Quick question: do your field crews use mobile phones or tablets for work?",
	}}
	lines := []string{
		"Yeah, all of them do.",
		"About thirty guys in the field.",
		"Sure, how about Thursday at 2?",
	}

	fmt.Printf("Voice agent test against %s\n\n", model)
	fmt.Printf("AGENT: %s\n", history[0].Text)
	for _, line := range lines {
		fmt.Printf("LEAD:  %s\n", line)
		start := time.Now()
		reply, err := agent.Respond(ctx, voice.Session{Lead: lead, History: history, Speech: line, Now: time.Now()})
		if err != nil {
			fmt.Printf("agent error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("AGENT: %s (%v)\n", reply.Text, time.Since(start).Round(time.Millisecond))
		history = append(history,
			calllogs.Turn{Speaker: calllogs.SpeakerLead, Text: line},
			calllogs.Turn{Speaker: calllogs.SpeakerAssistant, Text: reply.Text},
		)
		if reply.Result.Complete {
			fmt.Printf("\ncall complete: qualified=%v appointment=%v %s %s\n",
				reply.Result.Qualified, reply.Result.AppointmentSet,
				reply.Result.AppointmentDate, reply.Result.AppointmentTime)
			return
		}
	}
	fmt.Println("\nconversation ended without a result")
}

func newClient(ctx context.Context) (llm.Client, string, error) {
	if strings.EqualFold(os.Getenv("LLM_PROVIDER"), llm.ProviderBedrock) {
		model := strings.TrimSpace(os.Getenv("BEDROCK_MODEL_ID"))
		if model == "" {
			return nil, "", fmt.Errorf("BEDROCK_MODEL_ID not set; nothing to test")
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load AWS config: %w", err)
		}
		client, err := llm.NewBedrockClient(bedrockruntime.NewFromConfig(awsCfg), model)
		if err != nil {
			return nil, "", err
		}
		return client, model, nil
	}

	apiKey := strings.TrimSpace(os.Getenv("LLM_API_KEY"))
	if apiKey == "" {
		apiKey = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	}
	if apiKey == "" {
		return nil, "", fmt.Errorf("LLM_API_KEY not set; nothing to test")
	}
	model := os.Getenv("GEMINI_MODEL_ID")
	if model == "" {
		model = llm.DefaultGeminiModel
	}
	client, err := llm.NewGeminiClient(ctx, apiKey, model)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, model, nil
}
