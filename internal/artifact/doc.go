// Package artifact turns the server's airfoil plot into the final picture.
//
// The server draws the optimised section at zero incidence. Once a job
// completes, Renderer downloads that PNG, rotates it by the reported angle of
// attack and saves it in the output directory so the section is shown as it
// meets the flow. Rotation is clockwise on screen with the canvas size
// preserved.
package artifact
