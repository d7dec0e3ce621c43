// Copyright © 2026 scrollterm contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: render/shaders.go
// Summary: GLSL sources for the instanced cell pipeline.

package render

// Both passes share one vertex shader and one instance layout; the
// glyphPass uniform selects whether the quad covers the whole cell
// (backgrounds) or the glyph sub-rect.
const cellVertexShader = `#version 410 core
layout(location = 0) in vec2 quad;
layout(location = 1) in vec2 cellPos;
layout(location = 2) in vec2 cellSize;
layout(location = 3) in vec4 fg;
layout(location = 4) in vec4 bg;
layout(location = 5) in vec4 uvRect;
layout(location = 6) in vec2 glyphOff;
layout(location = 7) in vec2 glyphSize;
layout(location = 8) in float flags;

uniform mat4 projection;
uniform int glyphPass;

out vec2 vLocal;
out vec2 vUV;
flat out vec4 vFG;
flat out vec4 vBG;
flat out int vFlags;

void main() {
	vec2 pixel;
	if (glyphPass == 1) {
		pixel = cellPos + glyphOff + quad * glyphSize;
	} else {
		pixel = cellPos + quad * cellSize;
	}
	gl_Position = projection * vec4(pixel, 0.0, 1.0);
	vLocal = quad;
	vUV = uvRect.xy + quad * uvRect.zw;
	vFG = fg;
	vBG = bg;
	vFlags = int(flags);
}
` + "\x00"

const bgFragmentShader = `#version 410 core
in vec2 vLocal;
in vec2 vUV;
flat in vec4 vFG;
flat in vec4 vBG;
flat in int vFlags;

out vec4 outColor;

const int FLAG_UNDERLINE = 1;
const int FLAG_STRIKE    = 2;

void main() {
	// Premultiplied alpha. Underline and strikethrough span the whole
	// cell, so they are drawn here rather than in the glyph pass.
	vec4 c = vBG;
	if ((vFlags & FLAG_UNDERLINE) != 0 && vLocal.y > 0.92) {
		c = vFG;
	}
	if ((vFlags & FLAG_STRIKE) != 0 && abs(vLocal.y - 0.55) < 0.04) {
		c = vFG;
	}
	outColor = vec4(c.rgb * c.a, c.a);
}
` + "\x00"

const glyphFragmentShader = `#version 410 core
in vec2 vLocal;
in vec2 vUV;
flat in vec4 vFG;
flat in vec4 vBG;
flat in int vFlags;

uniform sampler2D atlas;
uniform float time;

out vec4 outColor;

const int FLAG_BOLD  = 4;
const int FLAG_BLINK = 16;

void main() {
	float coverage = texture(atlas, vUV).r;
	if ((vFlags & FLAG_BOLD) != 0) {
		coverage = min(coverage * 1.35, 1.0);
	}
	if ((vFlags & FLAG_BLINK) != 0 && mod(time, 1.0) > 0.5) {
		coverage = 0.0;
	}
	float a = vFG.a * coverage;
	outColor = vec4(vFG.rgb * a, a);
}
` + "\x00"
