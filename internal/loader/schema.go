package loader

// graphSchema is the shape contract for symbol-graph documents. Every
// document is validated against it before any record reaches the
// analyzer, so malformed input fails loudly at the boundary instead of
// surfacing as odd analysis results.
const graphSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "symbol graph",
  "type": "object",
  "required": ["types"],
  "properties": {
    "types": {
      "type": "array",
      "items": { "$ref": "#/definitions/type_record" }
    }
  },
  "definitions": {
    "type_record": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": { "type": "string", "minLength": 1 },
        "package": { "type": "string" },
        "file": { "type": "string" },
        "line": { "type": "integer", "minimum": 1 },
        "end_line": { "type": "integer", "minimum": 1 },
        "capabilities": {
          "type": "array",
          "items": { "type": "string", "minLength": 1 }
        },
        "base": { "type": "string" },
        "edges": {
          "type": "array",
          "items": { "$ref": "#/definitions/edge" }
        },
        "lifetimes": {
          "type": "array",
          "items": { "enum": ["", "singleton", "scoped", "transient"] }
        },
        "directive": { "$ref": "#/definitions/directive" },
        "extensible": { "type": "boolean" },
        "exported": { "type": "boolean" },
        "worker": { "type": "boolean" }
      }
    },
    "edge": {
      "type": "object",
      "required": ["target", "source"],
      "properties": {
        "target": { "$ref": "#/definitions/target" },
        "declared_by": { "type": "string" },
        "source": { "enum": ["field", "param", "config"] },
        "member": { "type": "string" },
        "key": { "type": "string" },
        "level": { "type": "integer", "minimum": 0 }
      }
    },
    "target": {
      "type": "object",
      "required": ["name"],
      "properties": {
        "name": { "type": "string", "minLength": 1 },
        "collection": { "type": "boolean" }
      }
    },
    "directive": {
      "type": "object",
      "properties": {
        "mode": { "enum": ["", "selective", "all", "self", "capabilities"] },
        "listed": { "type": "array", "items": { "type": "string" } },
        "exclusions": { "type": "array", "items": { "type": "string" } },
        "sharing": { "enum": ["", "separate", "shared"] },
        "condition": { "type": "string" }
      }
    }
  }
}`
