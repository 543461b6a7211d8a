package content

import "github.com/google/generative-ai-go/genai"

func str() *genai.Schema { return &genai.Schema{Type: genai.TypeString} }

func sourceListSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"title": str(),
				"uri":   str(),
			},
			Required: []string{"uri"},
		},
	}
}

var questionsSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"id":       {Type: genai.TypeInteger},
			"question": str(),
			"options": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"id":   str(),
						"text": str(),
					},
					Required: []string{"id", "text"},
				},
			},
			"correctId":   str(),
			"explanation": str(),
			"bibleVerse":  str(),
			"sources":     sourceListSchema(),
		},
		Required: []string{"id", "question", "options", "correctId", "explanation"},
	},
}

var liveFactsSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"fact":         str(),
			"source_title": str(),
			"source_uri":   str(),
		},
		Required: []string{"fact", "source_title", "source_uri"},
	},
}

var leaderboardSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"name":  str(),
			"score": {Type: genai.TypeInteger},
		},
		Required: []string{"name", "score"},
	},
}

var learnSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"category": {
				Type: genai.TypeString,
				Enum: []string{"Scripture", "Tradition", "History"},
			},
			"title":       str(),
			"description": str(),
			"details":     str(),
			"reference":   str(),
		},
		Required: []string{"category", "title", "description", "details"},
	},
}

// verificationSchema backs both the fact check and the hint.
var verificationSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"text":    str(),
		"sources": sourceListSchema(),
	},
	Required: []string{"text"},
}
