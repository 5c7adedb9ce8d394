package site

// pageTemplate is the Go html/template for each documentation page.
const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}} | {{.ProjectName}}</title>
  <link rel="stylesheet" href="{{.BasePath}}style.css">
</head>
<body data-languages="{{.Languages}}">
  <a href="#" id="nav-button">
    <span>NAV</span>
  </a>
  <div class="tocify-wrapper">
    <div class="toc-project">{{.ProjectName}}</div>
    <nav class="toc-pages-wrapper">
      {{.Pages}}
    </nav>
    <div id="toc">
      {{.TOC}}
    </div>
  </div>
  <div class="page-wrapper">
    <div class="dark-box"></div>
    <div class="content">
      {{.Content}}
    </div>
  </div>
  <script>window.doctoc = {{.Client}};</script>
  <script src="{{.BasePath}}toc.js"></script>
</body>
</html>`

// cssContent styles the panel and content area.
const cssContent = `:root {
  --toc-width: 230px;
  --toc-bg: #2e3336;
  --toc-text: #fff;
  --toc-active: #0f75d4;
  --toc-show-speed: 0ms;
  --toc-hide-speed: 180ms;
  --text: #333;
  --bg: #f3f7f9;
  --code-bg: #f7f7f7;
  --border: #ccc;
}

*, *::before, *::after {
  box-sizing: border-box;
}

body {
  margin: 0;
  font-family: "Helvetica Neue", Helvetica, Arial, sans-serif;
  font-size: 14px;
  color: var(--text);
  background: var(--bg);
}

.tocify-wrapper {
  position: fixed;
  top: 0;
  bottom: 0;
  left: 0;
  width: var(--toc-width);
  overflow-y: auto;
  background: var(--toc-bg);
  color: var(--toc-text);
  z-index: 30;
  transition: left var(--toc-hide-speed) ease-in-out;
}

.toc-project {
  padding: 20px 15px 10px;
  font-weight: bold;
  font-size: 16px;
}

.toc-pages, #toc ul {
  list-style: none;
  margin: 0;
  padding: 0;
}

.toc-pages a, #toc a {
  display: block;
  padding: 2px 15px;
  color: var(--toc-text);
  text-decoration: none;
  overflow: hidden;
  text-overflow: ellipsis;
  white-space: nowrap;
}

.toc-pages li.active > a {
  text-decoration: underline;
}

.toc-section > span {
  display: block;
  padding: 6px 15px 2px;
  font-size: 12px;
  text-transform: uppercase;
  opacity: 0.7;
}

.toc-pages-wrapper {
  padding-bottom: 10px;
  border-bottom: 1px solid rgba(255, 255, 255, 0.1);
}

#toc .tocify-item.active > a {
  background: var(--toc-active);
}

#toc .tocify-subheader {
  max-height: 0;
  overflow: hidden;
  transition: max-height var(--toc-hide-speed) ease-in-out;
}

#toc .tocify-subheader.open {
  max-height: 2000px;
  transition-duration: var(--toc-show-speed);
}

#toc .tocify-subheader a {
  padding-left: 25px;
  font-size: 12px;
}

#toc .tocify-subheader .tocify-subheader a {
  padding-left: 35px;
}

#nav-button {
  display: none;
  position: fixed;
  top: 0;
  left: 0;
  z-index: 100;
  padding: 8px 12px;
  color: #000;
  text-decoration: none;
  font-weight: bold;
  background: rgba(255, 255, 255, 0.8);
  transition: left var(--toc-hide-speed) ease-in-out;
}

.page-wrapper {
  margin-left: var(--toc-width);
  min-height: 100vh;
  position: relative;
  transition: left var(--toc-hide-speed) ease-in-out;
}

.content {
  max-width: 860px;
  padding: 10px 28px 60px;
  line-height: 1.6;
  background: #fff;
  min-height: 100vh;
}

.content .toc-anchor {
  height: 0;
}

.content pre {
  padding: 12px;
  overflow-x: auto;
  background: var(--code-bg);
  border: 1px solid var(--border);
  border-radius: 4px;
}

.content code {
  font-family: Consolas, Menlo, Monaco, monospace;
  font-size: 12px;
}

.content table {
  border-collapse: collapse;
  margin: 1em 0;
}

.content th, .content td {
  padding: 6px 12px;
  border: 1px solid var(--border);
}

.content img {
  max-width: 100%;
}

@media (max-width: 930px) {
  .tocify-wrapper {
    left: calc(-1 * var(--toc-width));
  }
  .tocify-wrapper.open {
    left: 0;
  }
  .page-wrapper {
    margin-left: 0;
    left: 0;
  }
  .page-wrapper.open {
    left: var(--toc-width);
  }
  #nav-button {
    display: block;
  }
  #nav-button.open {
    left: var(--toc-width);
  }
}
`

// jsContent reports page events to the synchronizer and applies its effects.
// Without a socket (pages opened from disk) the panel still toggles locally.
const jsContent = `(function() {
  'use strict';

  var cfg = window.doctoc || {};
  var wrapper = document.querySelector('.tocify-wrapper');
  var navButton = document.getElementById('nav-button');
  var pageWrapper = document.querySelector('.page-wrapper');
  var toc = document.getElementById('toc');
  var socket = null;
  var open = false;

  function send(msg) {
    if (socket && socket.readyState === WebSocket.OPEN) {
      socket.send(JSON.stringify(msg));
      return true;
    }
    return false;
  }

  function setOpen(v) {
    open = v;
    wrapper.classList.toggle('open', v);
    navButton.classList.toggle('open', v);
    pageWrapper.classList.toggle('open', v);
  }

  function anchorTops() {
    var anchors = document.querySelectorAll('.content .toc-anchor');
    var tops = [];
    for (var i = 0; i < anchors.length; i++) {
      tops.push(anchors[i].getBoundingClientRect().top + window.pageYOffset);
    }
    return tops;
  }

  function item(id) {
    var items = toc.querySelectorAll('.tocify-item');
    for (var i = 0; i < items.length; i++) {
      if (items[i].getAttribute('data-unique') === id) {
        return items[i];
      }
    }
    return null;
  }

  function highlight(activeID, expanded) {
    var items = toc.querySelectorAll('.tocify-item.active');
    for (var i = 0; i < items.length; i++) {
      items[i].classList.remove('active');
    }
    var subs = toc.querySelectorAll('.tocify-subheader.open');
    for (var j = 0; j < subs.length; j++) {
      subs[j].classList.remove('open');
    }
    for (var k = 0; k < expanded.length; k++) {
      var li = item(expanded[k]);
      var next = li && li.nextElementSibling;
      if (next && next.classList.contains('tocify-subheader')) {
        next.classList.add('open');
      }
    }
    var active = item(activeID);
    if (active) {
      active.classList.add('active');
    }
  }

  function apply(e) {
    switch (e.kind) {
    case 'open':
      setOpen(!!e.open);
      break;
    case 'speed':
      document.documentElement.style.setProperty('--toc-show-speed', e.show_speed_ms + 'ms');
      document.documentElement.style.setProperty('--toc-hide-speed', e.hide_speed_ms + 'ms');
      break;
    case 'highlight':
      highlight(e.active_id, e.expanded || []);
      break;
    case 'replace_hash':
      if (window.history && window.history.replaceState) {
        window.history.replaceState(null, '', e.hash);
      }
      break;
    case 'recalculate_heights':
      send({type: 'heights', tops: anchorTops()});
      break;
    }
  }

  function trackImages() {
    var images = document.querySelectorAll('.content img');
    function settled(img, failed) {
      send({type: 'image_settled', src: img.getAttribute('src') || '', failed: failed});
    }
    for (var i = 0; i < images.length; i++) {
      (function(img) {
        if (img.complete) {
          settled(img, img.naturalWidth === 0);
          return;
        }
        img.addEventListener('load', function() { settled(img, false); });
        img.addEventListener('error', function() { settled(img, true); });
      })(images[i]);
    }
  }

  navButton.addEventListener('click', function(ev) {
    ev.preventDefault();
    if (!send({type: 'toggle'})) {
      setOpen(!open);
    }
  });

  pageWrapper.addEventListener('click', function() {
    if (!send({type: 'document_click'}) && open) {
      setOpen(false);
    }
  });

  toc.addEventListener('click', function(ev) {
    var li = ev.target.closest('.tocify-item');
    if (!li) {
      return;
    }
    var id = li.getAttribute('data-unique');
    if (cfg.scrollTo !== undefined && cfg.scrollTo !== -1) {
      ev.preventDefault();
      var target = document.getElementById(id);
      if (target) {
        window.location.hash = id;
        window.scrollTo(0, target.getBoundingClientRect().top + window.pageYOffset - cfg.scrollTo);
      }
    }
    if (!send({type: 'entry_select', id: id})) {
      setOpen(false);
    }
  });

  var pending = false;
  window.addEventListener('scroll', function() {
    if (pending) {
      return;
    }
    pending = true;
    window.requestAnimationFrame(function() {
      pending = false;
      send({type: 'scroll', top: window.pageYOffset});
    });
  });

  window.addEventListener('resize', function() {
    send({type: 'heights', tops: anchorTops()});
  });

  if (!window.WebSocket || window.location.protocol === 'file:') {
    return;
  }
  var scheme = window.location.protocol === 'https:' ? 'wss://' : 'ws://';
  socket = new WebSocket(scheme + window.location.host + (cfg.socket || '/ws/sync'));
  socket.addEventListener('open', function() {
    send({
      type: 'ready',
      page: cfg.page || '',
      hash: window.location.hash,
      images: document.querySelectorAll('.content img').length
    });
    send({type: 'heights', tops: anchorTops()});
    trackImages();
  });
  socket.addEventListener('message', function(msg) {
    try {
      apply(JSON.parse(msg.data));
    } catch (err) {
      console.error('doctoc: bad effect', err);
    }
  });
})();
`
