package parser

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Node элемент XML-документа в обобщенном виде: текст, атрибуты и дочерние
// элементы, сгруппированные по локальному имени.
type Node struct {
	Name     string
	Text     string
	Attrs    map[string]string
	children map[string]*OneOrMany
	order    []string
}

// OneOrMany значение дочернего поля, которое в XML может встретиться
// один или несколько раз. Ровно одно из one и many задано.
type OneOrMany struct {
	one  *Node
	many []*Node
}

func (o *OneOrMany) add(n *Node) {
	switch {
	case o.many != nil:
		o.many = append(o.many, n)
	case o.one != nil:
		o.many = []*Node{o.one, n}
		o.one = nil
	default:
		o.one = n
	}
}

// All нормализует значение в последовательность. Единственный элемент
// становится последовательностью длины 1.
func (o *OneOrMany) All() []*Node {
	if o == nil {
		return []*Node{}
	}
	if o.one != nil {
		return []*Node{o.one}
	}
	return o.many
}

// Child возвращает первый дочерний элемент с именем name или nil.
func (n *Node) Child(name string) *Node {
	if n == nil {
		return nil
	}
	all := n.children[name].All()
	if len(all) == 0 {
		return nil
	}
	return all[0]
}

// Children возвращает все дочерние элементы с именем name; пустой срез, если их нет.
func (n *Node) Children(name string) []*Node {
	if n == nil {
		return []*Node{}
	}
	return n.children[name].All()
}

// ChildText возвращает текст первого дочернего элемента по цепочке имен.
func (n *Node) ChildText(path ...string) string {
	cur := n
	for _, name := range path {
		cur = cur.Child(name)
		if cur == nil {
			return ""
		}
	}
	return cur.Text
}

// Fields возвращает имена дочерних полей в порядке первого появления.
func (n *Node) Fields() []string { return n.order }

func (n *Node) appendChild(c *Node) {
	if n.children == nil {
		n.children = make(map[string]*OneOrMany)
	}
	v, ok := n.children[c.Name]
	if !ok {
		v = &OneOrMany{}
		n.children[c.Name] = v
		n.order = append(n.order, c.Name)
	}
	v.add(c)
}

// ParseTree разбирает XML-документ в дерево Node. Пространства имен
// отбрасываются, текст узлов обрезается по краям.
func ParseTree(r io.Reader) (*Node, error) {
	decoder := xml.NewDecoder(r)
	var stack []*Node
	var text []*strings.Builder
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			if len(stack) > 0 {
				return nil, fmt.Errorf("unexpected end of document inside <%s>", stack[len(stack)-1].Name)
			}
			return nil, errors.New("document has no root element")
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			node := &Node{Name: t.Name.Local}
			for _, a := range t.Attr {
				if node.Attrs == nil {
					node.Attrs = make(map[string]string, len(t.Attr))
				}
				node.Attrs[a.Name.Local] = a.Value
			}
			stack = append(stack, node)
			text = append(text, &strings.Builder{})
		case xml.CharData:
			if len(stack) > 0 {
				text[len(text)-1].Write(t)
			}
		case xml.EndElement:
			node := stack[len(stack)-1]
			node.Text = strings.TrimSpace(text[len(text)-1].String())
			stack = stack[:len(stack)-1]
			text = text[:len(text)-1]
			if len(stack) == 0 {
				return node, nil
			}
			stack[len(stack)-1].appendChild(node)
		}
	}
}
