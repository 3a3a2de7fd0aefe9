package gemini

import "crappybird/pkg/bird"

var _ bird.Model = (*Client)(nil)
