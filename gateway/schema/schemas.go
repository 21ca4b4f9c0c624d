package schema

const openAIChatSchema = `{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "title": "OpenAI Chat Completion Request",
    "type": "object",
    "required": ["model", "messages"],
    "properties": {
        "model": {
            "type": "string",
            "minLength": 1
        },
        "messages": {
            "type": "array",
            "minItems": 1,
            "items": {
                "type": "object",
                "required": ["role", "content"],
                "properties": {
                    "role": {
                        "type": "string",
                        "enum": ["system", "user", "assistant", "tool", "function"]
                    },
                    "content": {
                        "oneOf": [
                            {"type": "string"},
                            {"type": "null"},
                            {
                                "type": "array",
                                "items": {
                                    "type": "object",
                                    "required": ["type"],
                                    "properties": {
                                        "type": {"type": "string"},
                                        "text": {"type": "string"},
                                        "image_url": {"type": "object"}
                                    }
                                }
                            }
                        ]
                    },
                    "name": {"type": "string"},
                    "tool_calls": {"type": "array"},
                    "tool_call_id": {"type": "string"},
                    "function_call": {"type": "object"}
                }
            }
        },
        "max_tokens": {
            "type": "integer",
            "minimum": 1
        },
        "temperature": {
            "type": "number",
            "minimum": 0,
            "maximum": 2
        },
        "top_p": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
        },
        "n": {
            "type": "integer",
            "minimum": 1
        },
        "stream": {"type": "boolean"},
        "stop": {
            "oneOf": [
                {"type": "string"},
                {"type": "array", "items": {"type": "string"}, "maxItems": 4}
            ]
        },
        "presence_penalty": {
            "type": "number",
            "minimum": -2,
            "maximum": 2
        },
        "frequency_penalty": {
            "type": "number",
            "minimum": -2,
            "maximum": 2
        },
        "logit_bias": {
            "type": "object",
            "additionalProperties": {"type": "number"}
        },
        "user": {"type": "string"},
        "tools": {"type": "array"},
        "tool_choice": {},
        "response_format": {"type": "object"},
        "seed": {"type": "integer"}
    },
    "additionalProperties": true
}`

const openAICompletionSchema = `{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "title": "OpenAI Completion Request",
    "type": "object",
    "required": ["model", "prompt"],
    "properties": {
        "model": {
            "type": "string",
            "minLength": 1
        },
        "prompt": {
            "oneOf": [
                {"type": "string"},
                {"type": "array", "items": {"type": "string"}}
            ]
        },
        "max_tokens": {
            "type": "integer",
            "minimum": 1
        },
        "temperature": {
            "type": "number",
            "minimum": 0,
            "maximum": 2
        },
        "top_p": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
        },
        "n": {
            "type": "integer",
            "minimum": 1
        },
        "stream": {"type": "boolean"},
        "logprobs": {
            "type": "integer",
            "minimum": 0,
            "maximum": 5
        },
        "echo": {"type": "boolean"},
        "stop": {
            "oneOf": [
                {"type": "string"},
                {"type": "array", "items": {"type": "string"}, "maxItems": 4}
            ]
        },
        "presence_penalty": {
            "type": "number",
            "minimum": -2,
            "maximum": 2
        },
        "frequency_penalty": {
            "type": "number",
            "minimum": -2,
            "maximum": 2
        },
        "best_of": {
            "type": "integer",
            "minimum": 1
        },
        "logit_bias": {
            "type": "object",
            "additionalProperties": {"type": "number"}
        },
        "user": {"type": "string"}
    },
    "additionalProperties": true
}`

const anthropicMessagesSchema = `{
    "$schema": "http://json-schema.org/draft-07/schema#",
    "title": "Anthropic Messages Request",
    "type": "object",
    "required": ["model", "max_tokens", "messages"],
    "properties": {
        "model": {
            "type": "string",
            "minLength": 1
        },
        "max_tokens": {
            "type": "integer",
            "minimum": 1
        },
        "messages": {
            "type": "array",
            "minItems": 1,
            "items": {
                "type": "object",
                "required": ["role", "content"],
                "properties": {
                    "role": {
                        "type": "string",
                        "enum": ["user", "assistant"]
                    },
                    "content": {
                        "oneOf": [
                            {"type": "string"},
                            {
                                "type": "array",
                                "items": {
                                    "type": "object",
                                    "required": ["type"],
                                    "properties": {
                                        "type": {"type": "string"},
                                        "text": {"type": "string"},
                                        "source": {"type": "object"}
                                    }
                                }
                            }
                        ]
                    }
                }
            }
        },
        "system": {
            "oneOf": [
                {"type": "string"},
                {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "required": ["type", "text"],
                        "properties": {
                            "type": {"type": "string"},
                            "text": {"type": "string"},
                            "cache_control": {"type": "object"}
                        }
                    }
                }
            ]
        },
        "temperature": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
        },
        "top_p": {
            "type": "number",
            "minimum": 0,
            "maximum": 1
        },
        "top_k": {
            "type": "integer",
            "minimum": 0
        },
        "stream": {"type": "boolean"},
        "stop_sequences": {
            "type": "array",
            "items": {"type": "string"}
        },
        "metadata": {
            "type": "object",
            "properties": {
                "user_id": {"type": "string"}
            }
        },
        "tools": {"type": "array"},
        "tool_choice": {"type": "object"}
    },
    "additionalProperties": true
}`
