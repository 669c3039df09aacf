package main

import (
	"strings"

	"github.com/fatih/color"

	"github.com/hailam/chesscore/internal/board"
)

// renderBoard draws pos with White at the bottom.
func renderBoard(pos *board.Position) string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		sb.WriteByte(byte('1' + rank))
		sb.WriteByte(' ')
		for file := 0; file < 8; file++ {
			sq := board.NewSquare(file, rank)
			cell := color.New(color.BgHiWhite)
			if (file+rank)%2 == 0 {
				cell = color.New(color.BgGreen)
			}
			text := " . "
			if pc := pos.PieceAt(sq); pc != board.NoPiece {
				text = " " + pc.String() + " "
				if pc.Color() == board.White {
					cell.Add(color.FgHiBlue, color.Bold)
				} else {
					cell.Add(color.FgBlack, color.Bold)
				}
			}
			sb.WriteString(cell.Sprint(text))
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("   a  b  c  d  e  f  g  h\n")
	sb.WriteString(pos.ToFEN())
	return sb.String()
}
